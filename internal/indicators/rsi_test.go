package indicators

import (
	"math"
	"testing"
)

func TestRSI(t *testing.T) {
	tests := []struct {
		name        string
		period      int
		closes      []float64
		expected    []float64
		expectError bool
	}{
		{
			name:   "RSI with sufficient data",
			period: 3,
			// changes: +2, -1, +2, -1, +2
			closes:   []float64{100.0, 102.0, 101.0, 103.0, 102.0, 104.0},
			expected: []float64{math.NaN(), math.NaN(), math.NaN(), 80.0, 61.538462, 77.272727},
		},
		{
			name:     "Insufficient data",
			period:   7,
			closes:   []float64{100.0, 102.0, 101.0},
			expected: []float64{math.NaN(), math.NaN(), math.NaN()},
		},
		{
			name:     "All gains",
			period:   3,
			closes:   []float64{100.0, 102.0, 104.0, 106.0},
			expected: []float64{math.NaN(), math.NaN(), math.NaN(), 100.0},
		},
		{
			name:     "All losses",
			period:   3,
			closes:   []float64{106.0, 104.0, 102.0, 100.0},
			expected: []float64{math.NaN(), math.NaN(), math.NaN(), 0.0},
		},
		{
			name:     "No movement",
			period:   3,
			closes:   []float64{100.0, 100.0, 100.0, 100.0},
			expected: []float64{math.NaN(), math.NaN(), math.NaN(), 0.0},
		},
		{
			name:        "Invalid period",
			period:      -1,
			closes:      []float64{1, 2, 3},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := RSI(tt.closes, tt.period)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			assertSeries(t, tt.expected, values)
		})
	}
}

func TestRSI_Bounded(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i%7)
	}
	values, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, v := range values[14:] {
		if v < 0 || v > 100 {
			t.Errorf("index %d: RSI %f out of [0,100]", i+14, v)
		}
	}
}
