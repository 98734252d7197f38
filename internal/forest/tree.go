package forest

import (
	"math/rand/v2"
	"sort"
)

const leaf = -1

// Node is one entry of a flattened regression tree. Leaves have Feature == -1
// and carry the mean target of their training samples in Value.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for a single feature vector.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
}

type treeBuilder struct {
	X      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand
	nodes  []Node
}

// growTree fits a tree on the rows of X named by idx. Duplicate indices (from
// bootstrap sampling) weight a row by its multiplicity.
func growTree(X [][]float64, y []float64, idx []int, p treeParams, rng *rand.Rand) *Tree {
	b := &treeBuilder{X: X, y: y, params: p, rng: rng}
	b.build(idx, 0)
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf, Left: leaf, Right: leaf, Value: b.mean(idx)})

	n := len(idx)
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return id
	}
	if n < b.params.minSamplesSplit || n < 2*b.params.minSamplesLeaf {
		return id
	}
	if b.sse(idx) <= 1e-12 {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit scans every feature, in a random order, for the threshold that
// maximizes the reduction in squared error. Only strict improvements replace
// the current best, so the visiting order breaks ties.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	nFeatures := len(b.X[idx[0]])
	minLeaf := b.params.minSamplesLeaf

	var total float64
	for _, i := range idx {
		total += b.y[i]
	}

	bestScore := total * total / float64(n)
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, n)
	for _, f := range b.rng.Perm(nFeatures) {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.X[sorted[a]][f] < b.X[sorted[c]][f]
		})

		var sumLeft float64
		for k := 0; k < n-1; k++ {
			sumLeft += b.y[sorted[k]]
			nLeft := k + 1
			nRight := n - nLeft
			if nLeft < minLeaf {
				continue
			}
			if nRight < minLeaf {
				break
			}
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo >= hi {
				continue
			}
			sumRight := total - sumLeft
			score := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
			if score > bestScore+1e-12 {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestScore, bestFeature, bestThreshold, found = score, f, threshold, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

func (b *treeBuilder) sse(idx []int) float64 {
	m := b.mean(idx)
	var s float64
	for _, i := range idx {
		d := b.y[i] - m
		s += d * d
	}
	return s
}
