// Package dataset labels feature rows with the next day's close and splits
// them chronologically into training and holdout sets.
package dataset

import (
	"fmt"
	"math"
	"time"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

// DefaultTestFraction is the share of the latest examples held out for evaluation.
const DefaultTestFraction = 0.2

// FeatureNames is the model's feature vector order. MACDSignal is derived
// alongside MACD but deliberately left out; adding it would change the model.
var FeatureNames = []string{"SMA", "RSI", "MACD"}

// Vector returns the model input for a feature row, ordered as FeatureNames.
func Vector(r domain.FeatureRow) []float64 {
	return []float64{r.SMA, r.RSI, r.MACD}
}

// Split is a chronological train/test partition.
type Split struct {
	XTrain     [][]float64
	YTrain     []float64
	TrainDates []time.Time
	XTest      [][]float64
	YTest      []float64
	TestDates  []time.Time
}

// Label pairs every row with the close of the row after it. The final row has
// no next close and is dropped, as is any row whose vector or target is undefined.
func Label(rows []domain.FeatureRow) []domain.LabeledExample {
	if len(rows) < 2 {
		return nil
	}
	out := make([]domain.LabeledExample, 0, len(rows)-1)
	for i := 0; i < len(rows)-1; i++ {
		ex := domain.LabeledExample{FeatureRow: rows[i], Target: rows[i+1].Close}
		if !finite(ex.Target) || !finiteVector(Vector(ex.FeatureRow)) {
			continue
		}
		out = append(out, ex)
	}
	return out
}

// TestSize returns round(testFraction * n).
func TestSize(n int, testFraction float64) int {
	return int(math.Round(testFraction * float64(n)))
}

// Build labels the rows and splits them without shuffling: the latest
// TestSize(n, testFraction) examples form the test set.
func Build(rows []domain.FeatureRow, testFraction float64) (*Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction %v must be in (0, 1): %w", testFraction, ports.ErrInvalidRequest)
	}

	examples := Label(rows)
	n := len(examples)
	nTest := TestSize(n, testFraction)
	if n < 2 || nTest == 0 || nTest >= n {
		return nil, fmt.Errorf("%d labeled examples cannot be split with test fraction %v: %w", n, testFraction, ports.ErrInsufficientData)
	}
	nTrain := n - nTest

	split := &Split{
		XTrain:     make([][]float64, 0, nTrain),
		YTrain:     make([]float64, 0, nTrain),
		TrainDates: make([]time.Time, 0, nTrain),
		XTest:      make([][]float64, 0, nTest),
		YTest:      make([]float64, 0, nTest),
		TestDates:  make([]time.Time, 0, nTest),
	}
	for i, ex := range examples {
		if i < nTrain {
			split.XTrain = append(split.XTrain, Vector(ex.FeatureRow))
			split.YTrain = append(split.YTrain, ex.Target)
			split.TrainDates = append(split.TrainDates, ex.Date)
			continue
		}
		split.XTest = append(split.XTest, Vector(ex.FeatureRow))
		split.YTest = append(split.YTest, ex.Target)
		split.TestDates = append(split.TestDates, ex.Date)
	}
	return split, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVector(x []float64) bool {
	for _, v := range x {
		if !finite(v) {
			return false
		}
	}
	return true
}
