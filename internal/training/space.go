package training

import (
	"fmt"
	"math/rand/v2"

	"stockPredictor/internal/forest"
	"stockPredictor/internal/ports"
)

// SearchSpace is the discrete hyperparameter grid sampled by the randomized
// search. A MaxDepth of 0 means unbounded.
type SearchSpace struct {
	NTrees          []int
	MaxDepth        []int
	MinSamplesSplit []int
	MinSamplesLeaf  []int
	Bootstrap       []bool
}

// DefaultSearchSpace returns the 960-point grid used for tuned training.
func DefaultSearchSpace() SearchSpace {
	return SearchSpace{
		NTrees:          []int{100, 200, 300, 400, 500},
		MaxDepth:        []int{0, 10, 20, 30, 40, 50},
		MinSamplesSplit: []int{2, 5, 10, 15},
		MinSamplesLeaf:  []int{1, 2, 4, 6},
		Bootstrap:       []bool{true, false},
	}
}

// Size returns the number of grid points.
func (s SearchSpace) Size() int {
	return len(s.NTrees) * len(s.MaxDepth) * len(s.MinSamplesSplit) * len(s.MinSamplesLeaf) * len(s.Bootstrap)
}

// Validate checks that every dimension is non-empty and every point is a valid
// forest configuration.
func (s SearchSpace) Validate() error {
	if s.Size() == 0 {
		return fmt.Errorf("search space has an empty dimension: %w", ports.ErrInvalidRequest)
	}
	for i := 0; i < s.Size(); i++ {
		if err := s.At(i, 0).Validate(); err != nil {
			return fmt.Errorf("search space point %d: %w", i, err)
		}
	}
	return nil
}

// At decodes grid index i into forest parameters. The last dimension
// (bootstrap) varies fastest.
func (s SearchSpace) At(i int, seed uint64) forest.Params {
	p := forest.Params{Seed: seed}
	p.Bootstrap = s.Bootstrap[i%len(s.Bootstrap)]
	i /= len(s.Bootstrap)
	p.MinSamplesLeaf = s.MinSamplesLeaf[i%len(s.MinSamplesLeaf)]
	i /= len(s.MinSamplesLeaf)
	p.MinSamplesSplit = s.MinSamplesSplit[i%len(s.MinSamplesSplit)]
	i /= len(s.MinSamplesSplit)
	p.MaxDepth = s.MaxDepth[i%len(s.MaxDepth)]
	i /= len(s.MaxDepth)
	p.NTrees = s.NTrees[i%len(s.NTrees)]
	return p
}

// Sample draws n distinct grid indices with a seeded RNG. When n covers the
// whole grid every index is returned in order.
func (s SearchSpace) Sample(n int, seed uint64) []int {
	size := s.Size()
	if n >= size {
		out := make([]int, size)
		for i := range out {
			out[i] = i
		}
		return out
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xda942042e4dd58b5))
	return rng.Perm(size)[:n]
}
