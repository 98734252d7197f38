// Package training fits the forest either directly with fixed hyperparameters
// or through a cross-validated randomized search.
package training

import (
	"context"
	"fmt"
	"math"
	"strings"

	"stockPredictor/internal/forest"
	"stockPredictor/internal/ports"
)

// Mode selects how the model is trained.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeTuned  Mode = "tuned"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirect, "":
		return ModeDirect, nil
	case ModeTuned:
		return ModeTuned, nil
	default:
		return "", fmt.Errorf("unknown train mode %q (want direct or tuned): %w", s, ports.ErrInvalidRequest)
	}
}

// Config holds trainer settings.
type Config struct {
	Seed        uint64 // direct mode estimator seed
	DirectTrees int
	Search      SearchConfig
}

// DefaultConfig trains 100 trees with seed 42 in direct mode.
func DefaultConfig() Config {
	return Config{
		Seed:        42,
		DirectTrees: 100,
		Search:      DefaultSearchConfig(),
	}
}

// Result is a fitted model with the configuration that produced it.
type Result struct {
	Model   *forest.Forest
	Mode    Mode
	Params  forest.Params
	CVScore float64 // mean cross-validated R², NaN in direct mode
	Search  *SearchResult
}

// Trainer fits models.
type Trainer struct {
	config Config
	logger ports.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(config Config, logger ports.Logger) *Trainer {
	return &Trainer{config: config, logger: logger}
}

// Train fits a model on the training partition. Tuned mode never sees rows
// outside X.
func (t *Trainer) Train(ctx context.Context, X [][]float64, y []float64, mode Mode) (*Result, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("training partition is empty: %w", ports.ErrInsufficientData)
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%d rows but %d targets: %w", len(X), len(y), ports.ErrInvalidRequest)
	}

	switch mode {
	case ModeDirect:
		return t.trainDirect(ctx, X, y)
	case ModeTuned:
		return t.trainTuned(ctx, X, y)
	default:
		return nil, fmt.Errorf("unknown train mode %q: %w", mode, ports.ErrInvalidRequest)
	}
}

func (t *Trainer) trainDirect(ctx context.Context, X [][]float64, y []float64) (*Result, error) {
	params := forest.DefaultParams()
	params.NTrees = t.config.DirectTrees
	params.Seed = t.config.Seed

	t.logger.Info(ctx, "Training model", map[string]interface{}{
		"mode":   string(ModeDirect),
		"rows":   len(X),
		"params": params.String(),
	})
	model, err := forest.Fit(X, y, params)
	if err != nil {
		return nil, fmt.Errorf("fitting forest: %w", err)
	}
	return &Result{Model: model, Mode: ModeDirect, Params: params, CVScore: math.NaN()}, nil
}

func (t *Trainer) trainTuned(ctx context.Context, X [][]float64, y []float64) (*Result, error) {
	if len(X) < t.config.Search.Folds {
		return nil, fmt.Errorf("%d training rows for %d folds: %w", len(X), t.config.Search.Folds, ports.ErrInsufficientData)
	}
	search, err := NewRandomizedSearch(t.config.Search, t.logger)
	if err != nil {
		return nil, err
	}
	res, err := search.Run(ctx, X, y)
	if err != nil {
		return nil, fmt.Errorf("randomized search: %w", err)
	}

	best := res.Best()
	t.logger.Info(ctx, "Best parameters found", map[string]interface{}{
		"params":   best.Params.String(),
		"cv_r2":    best.Score,
		"searched": len(res.Candidates),
	})

	model, err := forest.Fit(X, y, best.Params)
	if err != nil {
		return nil, fmt.Errorf("refitting best candidate: %w", err)
	}
	return &Result{Model: model, Mode: ModeTuned, Params: best.Params, CVScore: best.Score, Search: res}, nil
}
