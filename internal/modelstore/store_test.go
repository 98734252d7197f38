package modelstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockPredictor/internal/forest"
	"stockPredictor/internal/ports"
)

func fitted(t *testing.T, seed uint64) *forest.Forest {
	t.Helper()
	X := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range X {
		f := float64(i)
		X[i] = []float64{100 + f, 30 + float64(i%7)*5, f/10 - 2}
		y[i] = 101 + f
	}
	p := forest.DefaultParams()
	p.NTrees = 5
	p.Seed = seed
	model, err := forest.Fit(X, y, p)
	require.NoError(t, err)
	return model
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "stock_model.gob")
	a := NewArtifact(fitted(t, 42), "AAPL", "direct")
	require.NoError(t, Save(a, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", loaded.Symbol)
	assert.Equal(t, "direct", loaded.Mode)
	assert.Equal(t, []string{"SMA", "RSI", "MACD"}, loaded.FeatureNames)
	assert.Equal(t, a.Forest.Params, loaded.Forest.Params)

	probe := [][]float64{{105, 40, -1.5}, {130, 55, 1.2}, {90, 10, -3}}
	want, err := a.PredictBatch(probe)
	require.NoError(t, err)
	got, err := loaded.PredictBatch(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock_model.gob")
	require.NoError(t, Save(NewArtifact(fitted(t, 1), "AAPL", "direct"), path))
	require.NoError(t, Save(NewArtifact(fitted(t, 2), "MSFT", "tuned"), path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", loaded.Symbol)
	assert.Equal(t, uint64(2), loaded.Forest.Params.Seed)
}

func TestSave_FailureKeepsPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock_model.gob")
	require.NoError(t, Save(NewArtifact(fitted(t, 1), "AAPL", "direct"), path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.ErrorIs(t, Save(&Artifact{Symbol: "X"}, path), ports.ErrInvalidRequest)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.gob"))
	assert.ErrorIs(t, err, ports.ErrNotFound)

	garbage := filepath.Join(dir, "garbage.gob")
	require.NoError(t, os.WriteFile(garbage, []byte("not a model at all"), 0o644))
	_, err = Load(garbage)
	assert.ErrorIs(t, err, ports.ErrArtifactCorrupt)

	truncated := filepath.Join(dir, "truncated.gob")
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, NewArtifact(fitted(t, 3), "AAPL", "direct")))
	require.NoError(t, os.WriteFile(truncated, buf.Bytes()[:buf.Len()/2], 0o644))
	_, err = Load(truncated)
	assert.ErrorIs(t, err, ports.ErrArtifactCorrupt)
}

func TestDecode_RejectsIncompatibleShape(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{"feature order", func(a *Artifact) { a.FeatureNames = []string{"RSI", "SMA", "MACD"} }},
		{"signal feature", func(a *Artifact) { a.FeatureNames = []string{"SMA", "RSI", "MACD", "MACD_signal"} }},
		{"broken tree", func(a *Artifact) { a.Forest.Trees[0].Nodes[0].Feature = 9 }},
		{"no trees", func(a *Artifact) { a.Forest.Trees = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArtifact(fitted(t, 4), "AAPL", "direct")
			tt.mutate(a)
			var buf bytes.Buffer
			require.NoError(t, encode(&buf, a))
			_, err := Decode(buf.Bytes())
			assert.ErrorIs(t, err, ports.ErrArtifactCorrupt)
		})
	}
}
