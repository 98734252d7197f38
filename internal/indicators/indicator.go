// Package indicators computes technical indicators over price series.
//
// Every function returns a slice the same length as its input. Positions that
// fall inside an indicator's warm-up period are NaN, matching TA-Lib's output
// alignment, so callers can line results up with the original dates.
package indicators

import (
	"fmt"
	"math"
)

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func validatePeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%s period must be positive, got %d", name, period)
	}
	return nil
}
