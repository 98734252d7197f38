package training

import (
	"fmt"

	"stockPredictor/internal/ports"
)

// Fold is one contiguous validation slice [Start, End) of the training rows.
type Fold struct {
	Start int
	End   int
}

// KFold splits n rows into k contiguous folds without shuffling. The first
// n%k folds hold one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d: %w", k, ports.ErrInvalidRequest)
	}
	if n < k {
		return nil, fmt.Errorf("%d rows cannot be split into %d folds: %w", n, k, ports.ErrInsufficientData)
	}
	folds := make([]Fold, k)
	start := 0
	for i := range folds {
		size := n / k
		if i < n%k {
			size++
		}
		folds[i] = Fold{Start: start, End: start + size}
		start += size
	}
	return folds, nil
}

// trainRows returns X and y with the fold removed.
func (f Fold) trainRows(X [][]float64, y []float64) ([][]float64, []float64) {
	n := len(X) - (f.End - f.Start)
	tx := make([][]float64, 0, n)
	ty := make([]float64, 0, n)
	tx = append(tx, X[:f.Start]...)
	tx = append(tx, X[f.End:]...)
	ty = append(ty, y[:f.Start]...)
	ty = append(ty, y[f.End:]...)
	return tx, ty
}
