package training

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"stockPredictor/internal/evaluation"
	"stockPredictor/internal/forest"
	"stockPredictor/internal/ports"
)

// SearchConfig holds configuration for the randomized search.
type SearchConfig struct {
	Space      SearchSpace
	Iterations int
	Folds      int
	Seed       uint64 // candidate sampling and the base estimator
	Workers    int    // 0 uses GOMAXPROCS
}

// DefaultSearchConfig samples 100 candidates scored by 3-fold CV with seed 42.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Space:      DefaultSearchSpace(),
		Iterations: 100,
		Folds:      3,
		Seed:       42,
	}
}

// Candidate is one evaluated configuration.
type Candidate struct {
	Index  int // grid index
	Params forest.Params
	Scores []float64 // per-fold R²
	Score  float64   // mean R², -Inf when undefined
}

// SearchResult holds every candidate, best first.
type SearchResult struct {
	Candidates []Candidate
}

// Best returns the winning candidate.
func (r *SearchResult) Best() Candidate {
	return r.Candidates[0]
}

// RandomizedSearch evaluates sampled configurations with K-fold cross-validation.
type RandomizedSearch struct {
	config SearchConfig
	logger ports.Logger
}

// NewRandomizedSearch creates a search instance.
func NewRandomizedSearch(config SearchConfig, logger ports.Logger) (*RandomizedSearch, error) {
	if config.Iterations < 1 {
		return nil, fmt.Errorf("search iterations must be >= 1: %w", ports.ErrInvalidRequest)
	}
	if config.Folds < 2 {
		return nil, fmt.Errorf("search folds must be >= 2: %w", ports.ErrInvalidRequest)
	}
	if err := config.Space.Validate(); err != nil {
		return nil, err
	}
	return &RandomizedSearch{config: config, logger: logger}, nil
}

// Run scores every sampled candidate on X, y. Candidates run concurrently but
// results are stored by sample position, so the ranking does not depend on
// scheduling. Ties keep the earlier sample.
func (s *RandomizedSearch) Run(ctx context.Context, X [][]float64, y []float64) (*SearchResult, error) {
	folds, err := KFold(len(X), s.config.Folds)
	if err != nil {
		return nil, err
	}

	indices := s.config.Space.Sample(s.config.Iterations, s.config.Seed)
	candidates := make([]Candidate, len(indices))

	workers := s.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s.logger.Info(ctx, "Starting randomized search", map[string]interface{}{
		"candidates": len(indices),
		"grid_size":  s.config.Space.Size(),
		"folds":      len(folds),
		"workers":    workers,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for pos, idx := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			params := s.config.Space.At(idx, s.config.Seed)
			scores, err := crossValidate(gctx, X, y, folds, params)
			if err != nil {
				return fmt.Errorf("candidate %d (%s): %w", idx, params, err)
			}
			candidates[pos] = Candidate{
				Index:  idx,
				Params: params,
				Scores: scores,
				Score:  meanScore(scores),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	return &SearchResult{Candidates: candidates}, nil
}

// crossValidate fits params on each fold's complement and scores R² on the fold.
func crossValidate(ctx context.Context, X [][]float64, y []float64, folds []Fold, params forest.Params) ([]float64, error) {
	scores := make([]float64, len(folds))
	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tx, ty := fold.trainRows(X, y)
		model, err := forest.Fit(tx, ty, params)
		if err != nil {
			return nil, err
		}
		pred, err := model.PredictBatch(X[fold.Start:fold.End])
		if err != nil {
			return nil, err
		}
		scores[i] = evaluation.R2(y[fold.Start:fold.End], pred)
	}
	return scores, nil
}

func meanScore(scores []float64) float64 {
	var sum float64
	for _, s := range scores {
		if math.IsNaN(s) {
			return math.Inf(-1)
		}
		sum += s
	}
	return sum / float64(len(scores))
}
