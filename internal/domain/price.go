package domain

import (
	"math"
	"time"
)

// PriceBar represents a single trading day of price data.
type PriceBar struct {
	Date     time.Time // Trading day (UTC midnight)
	Open     float64   // Opening price
	High     float64   // Highest price
	Low      float64   // Lowest price
	Close    float64   // Closing price (NaN when the provider left it undefined)
	Volume   float64   // Traded volume
	AdjClose float64   // Split/dividend adjusted close (NaN if not provided)
}

// HasClose reports whether the bar carries a usable closing price.
func (b PriceBar) HasClose() bool {
	return !math.IsNaN(b.Close)
}

// PriceSeries is a date-ordered sequence of daily bars for one symbol.
// Dates are strictly increasing; the series is read-only once built.
type PriceSeries struct {
	Symbol  string
	Bars    []PriceBar
	Columns []string // Flat column names reported by the provider, for diagnostics
}

// Len returns the number of bars in the series.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Dates returns the bar dates in series order.
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}
