package domain

import "time"

// ColumnKey identifies a provider column. Providers that return a two-level
// schema (price field, ticker) fill both parts; flat providers leave Ticker empty.
type ColumnKey struct {
	Field  string
	Ticker string
}

// RawFrame is the provider-shaped table returned before normalization.
// Every column holds exactly one value per entry in Dates; NaN marks a gap.
type RawFrame struct {
	Dates   []time.Time
	Columns map[ColumnKey][]float64
}

// NewRawFrame creates an empty frame for the given dates.
func NewRawFrame(dates []time.Time) *RawFrame {
	return &RawFrame{
		Dates:   dates,
		Columns: make(map[ColumnKey][]float64),
	}
}

// Set stores a column under the given field and ticker.
func (f *RawFrame) Set(field, ticker string, values []float64) {
	f.Columns[ColumnKey{Field: field, Ticker: ticker}] = values
}

// Len returns the number of rows in the frame.
func (f *RawFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Dates)
}
