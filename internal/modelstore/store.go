// Package modelstore persists fitted forests as versioned gob artifacts.
package modelstore

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"stockPredictor/internal/dataset"
	"stockPredictor/internal/forest"
	"stockPredictor/internal/ports"
)

const (
	magic         = "STKRF"
	formatVersion = 1
)

// Artifact is the persisted model together with what is needed to use it.
type Artifact struct {
	Version      int
	Symbol       string
	Mode         string
	TrainedAt    time.Time
	FeatureNames []string
	Forest       *forest.Forest
}

// NewArtifact wraps a fitted forest with the current feature order.
func NewArtifact(model *forest.Forest, symbol, mode string) *Artifact {
	return &Artifact{
		Version:      formatVersion,
		Symbol:       symbol,
		Mode:         mode,
		TrainedAt:    time.Now().UTC(),
		FeatureNames: slices.Clone(dataset.FeatureNames),
		Forest:       model,
	}
}

// Predict satisfies ports.Predictor.
func (a *Artifact) Predict(x []float64) (float64, error) {
	return a.Forest.Predict(x)
}

// PredictBatch satisfies ports.Predictor.
func (a *Artifact) PredictBatch(X [][]float64) ([]float64, error) {
	return a.Forest.PredictBatch(X)
}

// Save writes the artifact to path, replacing any existing file. The bytes go
// to a temporary file in the same directory which is renamed into place, so
// the previous artifact survives any failure.
func Save(a *Artifact, path string) (err error) {
	if a == nil || a.Forest == nil {
		return fmt.Errorf("nothing to save: %w", ports.ErrInvalidRequest)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = encode(w, a); err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing artifact: %w", err)
	}
	return nil
}

func encode(w io.Writer, a *Artifact) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	out := *a
	out.Version = formatVersion
	return gob.NewEncoder(w).Encode(&out)
}

// Load reads an artifact. A missing file is ports.ErrNotFound; bytes that do
// not decode into a usable forest with the expected features are
// ports.ErrArtifactCorrupt.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("model artifact %s: %w", path, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("reading model artifact %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses artifact bytes.
func Decode(data []byte) (*Artifact, error) {
	if !bytes.HasPrefix(data, []byte(magic)) {
		return nil, fmt.Errorf("missing artifact header: %w", ports.ErrArtifactCorrupt)
	}
	var a Artifact
	if err := gob.NewDecoder(bytes.NewReader(data[len(magic):])).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding artifact: %v: %w", err, ports.ErrArtifactCorrupt)
	}
	if a.Version != formatVersion {
		return nil, fmt.Errorf("artifact version %d, want %d: %w", a.Version, formatVersion, ports.ErrArtifactCorrupt)
	}
	if !slices.Equal(a.FeatureNames, dataset.FeatureNames) {
		return nil, fmt.Errorf("artifact features %v, want %v: %w", a.FeatureNames, dataset.FeatureNames, ports.ErrArtifactCorrupt)
	}
	if err := a.Forest.Validate(); err != nil {
		return nil, fmt.Errorf("artifact forest: %v: %w", err, ports.ErrArtifactCorrupt)
	}
	if a.Forest.NFeatures != len(a.FeatureNames) {
		return nil, fmt.Errorf("forest expects %d features, artifact lists %d: %w",
			a.Forest.NFeatures, len(a.FeatureNames), ports.ErrArtifactCorrupt)
	}
	return &a, nil
}
