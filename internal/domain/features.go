package domain

import "time"

// FeatureRow holds the technical indicators derived for one trading day.
// MACDSignal is computed alongside MACD but is not part of the model's
// feature vector.
type FeatureRow struct {
	Date       time.Time
	Close      float64
	SMA        float64
	RSI        float64
	MACD       float64
	MACDSignal float64
}

// LabeledExample pairs a feature row with the next trading day's close.
type LabeledExample struct {
	FeatureRow
	Target float64
}
