// Package forest implements a random-forest regressor: bootstrap-aggregated
// CART trees whose predictions are averaged.
package forest

import (
	"fmt"
	"math"
	"math/rand/v2"

	"stockPredictor/internal/ports"
)

// Params are the forest hyperparameters. MaxDepth 0 grows trees until the
// leaves are pure or too small to split.
type Params struct {
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Bootstrap       bool
	Seed            uint64
}

// DefaultParams returns 100 unbounded trees with bootstrap sampling and seed 42.
func DefaultParams() Params {
	return Params{
		NTrees:          100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

// Validate checks the hyperparameters.
func (p Params) Validate() error {
	switch {
	case p.NTrees < 1:
		return fmt.Errorf("n_estimators must be >= 1, got %d: %w", p.NTrees, ports.ErrInvalidRequest)
	case p.MaxDepth < 0:
		return fmt.Errorf("max_depth must be >= 0, got %d: %w", p.MaxDepth, ports.ErrInvalidRequest)
	case p.MinSamplesSplit < 2:
		return fmt.Errorf("min_samples_split must be >= 2, got %d: %w", p.MinSamplesSplit, ports.ErrInvalidRequest)
	case p.MinSamplesLeaf < 1:
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d: %w", p.MinSamplesLeaf, ports.ErrInvalidRequest)
	}
	return nil
}

// String renders the parameters the way they are logged.
func (p Params) String() string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = fmt.Sprintf("%d", p.MaxDepth)
	}
	return fmt.Sprintf("n_estimators=%d max_depth=%s min_samples_split=%d min_samples_leaf=%d bootstrap=%t",
		p.NTrees, depth, p.MinSamplesSplit, p.MinSamplesLeaf, p.Bootstrap)
}

// Forest is a fitted ensemble. It is immutable after Fit and safe for
// concurrent prediction.
type Forest struct {
	Params    Params
	NFeatures int
	Trees     []*Tree
}

// Fit trains a forest on X (rows of equal width) and y. The same data and
// Params always produce the same forest.
func Fit(X [][]float64, y []float64, p Params) (*Forest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("no training rows: %w", ports.ErrInsufficientData)
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%d rows but %d targets: %w", len(X), len(y), ports.ErrInvalidRequest)
	}
	width := len(X[0])
	if width == 0 {
		return nil, fmt.Errorf("rows have no features: %w", ports.ErrInvalidRequest)
	}
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d: %w", i, len(row), width, ports.ErrInvalidRequest)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d holds a non-finite feature: %w", i, ports.ErrMalformedFeatureInput)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("target %d is not finite: %w", i, ports.ErrMalformedFeatureInput)
		}
	}

	master := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	tp := treeParams{
		maxDepth:        p.MaxDepth,
		minSamplesSplit: p.MinSamplesSplit,
		minSamplesLeaf:  p.MinSamplesLeaf,
	}

	f := &Forest{Params: p, NFeatures: width, Trees: make([]*Tree, 0, p.NTrees)}
	n := len(X)
	for t := 0; t < p.NTrees; t++ {
		rng := rand.New(rand.NewPCG(master.Uint64(), master.Uint64()))
		idx := make([]int, n)
		if p.Bootstrap {
			for i := range idx {
				idx[i] = rng.IntN(n)
			}
		} else {
			for i := range idx {
				idx[i] = i
			}
		}
		f.Trees = append(f.Trees, growTree(X, y, idx, tp, rng))
	}
	return f, nil
}

// Predict returns the mean of the tree predictions for x.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("got %d features, model expects %d: %w", len(x), f.NFeatures, ports.ErrInvalidRequest)
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature vector holds a non-finite value: %w", ports.ErrMalformedFeatureInput)
		}
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// PredictBatch predicts every row of X.
func (f *Forest) PredictBatch(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		v, err := f.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Validate checks the structure of a forest restored from storage so that
// prediction cannot index out of range or loop.
func (f *Forest) Validate() error {
	if f == nil || len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if f.NFeatures < 1 {
		return fmt.Errorf("forest has %d features", f.NFeatures)
	}
	for ti, t := range f.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature == leaf {
				if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
					return fmt.Errorf("tree %d leaf %d has a non-finite value", ti, ni)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			// Children are always appended after their parent.
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children %d/%d", ti, ni, n.Left, n.Right)
			}
		}
	}
	return nil
}
