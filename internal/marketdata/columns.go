// Package marketdata fetches daily price history through a PriceProvider and
// normalizes whatever column layout the provider returns into a PriceSeries.
package marketdata

import (
	"strings"
	"time"
)

// Canonical price fields.
const (
	FieldOpen     = "open"
	FieldHigh     = "high"
	FieldLow      = "low"
	FieldClose    = "close"
	FieldAdjClose = "adj_close"
	FieldVolume   = "volume"
)

// DateLayout is the calendar date format accepted on the command line and in CSV files.
const DateLayout = "2006-01-02"

// CanonicalField maps provider column names ("Close", "Adj Close", "adjclose",
// "c") onto the canonical field names. Unknown names are returned lowercased.
func CanonicalField(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	switch n {
	case "o", "open":
		return FieldOpen
	case "h", "high":
		return FieldHigh
	case "l", "low":
		return FieldLow
	case "c", "close":
		return FieldClose
	case "adj_close", "adjclose", "adjusted_close":
		return FieldAdjClose
	case "v", "vol", "volume":
		return FieldVolume
	default:
		return n
	}
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// Day truncates t to UTC midnight of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
