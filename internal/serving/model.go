// Package serving exposes the trained model and price history over HTTP.
package serving

import (
	"fmt"
	"time"

	"stockPredictor/internal/dataset"
	"stockPredictor/internal/domain"
	"stockPredictor/internal/features"
	"stockPredictor/internal/modelstore"
)

// ModelHandle is a loaded artifact ready for prediction. It is never mutated
// after construction, so one handle may serve concurrent requests.
type ModelHandle struct {
	artifact *modelstore.Artifact
	deriver  *features.Deriver
}

// Prediction is the model's estimate of the close following AsOf.
type Prediction struct {
	AsOf      time.Time
	LastClose float64
	NextClose float64
}

// LoadModelHandle loads the artifact at path.
func LoadModelHandle(path string) (*ModelHandle, error) {
	a, err := modelstore.Load(path)
	if err != nil {
		return nil, err
	}
	return NewModelHandle(a)
}

// NewModelHandle wraps an already loaded artifact.
func NewModelHandle(a *modelstore.Artifact) (*ModelHandle, error) {
	deriver, err := features.NewDeriver(features.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &ModelHandle{artifact: a, deriver: deriver}, nil
}

// Symbol returns the ticker the model was trained on.
func (h *ModelHandle) Symbol() string { return h.artifact.Symbol }

// TrainedAt returns when the artifact was produced.
func (h *ModelHandle) TrainedAt() time.Time { return h.artifact.TrainedAt }

// WarmUp is the number of bars consumed before the first feature row.
func (h *ModelHandle) WarmUp() int { return h.deriver.WarmUp() }

// PredictNext derives features from series exactly as training does and
// predicts the close after the latest complete row.
func (h *ModelHandle) PredictNext(series domain.PriceSeries) (Prediction, error) {
	rows, err := h.deriver.Derive(series)
	if err != nil {
		return Prediction{}, fmt.Errorf("deriving features: %w", err)
	}
	last := rows[len(rows)-1]
	next, err := h.artifact.Predict(dataset.Vector(last))
	if err != nil {
		return Prediction{}, fmt.Errorf("predicting: %w", err)
	}
	return Prediction{AsOf: last.Date, LastClose: last.Close, NextClose: next}, nil
}
