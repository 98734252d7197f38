// Package features turns a price series into the indicator rows the model is
// trained on.
package features

import (
	"fmt"
	"math"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/indicators"
	"stockPredictor/internal/ports"
)

// Config holds the indicator windows.
type Config struct {
	SMAPeriod  int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultConfig returns SMA(14), RSI(14) and MACD(12,26,9).
func DefaultConfig() Config {
	return Config{
		SMAPeriod:  14,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

func (c Config) macd() indicators.MACDConfig {
	return indicators.MACDConfig{
		FastPeriod:   c.MACDFast,
		SlowPeriod:   c.MACDSlow,
		SignalPeriod: c.MACDSignal,
	}
}

// Validate checks that every window is usable.
func (c Config) Validate() error {
	if c.SMAPeriod <= 0 || c.RSIPeriod <= 0 || c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 {
		return fmt.Errorf("indicator periods must be positive: %w", ports.ErrInvalidRequest)
	}
	if c.MACDFast == c.MACDSlow {
		return fmt.Errorf("MACD fast and slow periods must differ: %w", ports.ErrInvalidRequest)
	}
	return nil
}

// Deriver computes feature rows from a price series.
type Deriver struct {
	cfg Config
}

// NewDeriver creates a Deriver with the given windows.
func NewDeriver(cfg Config) (*Deriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{cfg: cfg}, nil
}

// WarmUp returns the number of leading bars that can never produce a row.
func (d *Deriver) WarmUp() int {
	warm := d.cfg.SMAPeriod - 1
	if d.cfg.RSIPeriod > warm {
		warm = d.cfg.RSIPeriod
	}
	if lb := d.cfg.macd().Lookback(); lb > warm {
		warm = lb
	}
	return warm
}

// Derive drops bars without a close, computes SMA, RSI, MACD and the MACD
// signal over the remaining closes, and emits one row per bar whose
// indicators are all defined. Rows are never imputed.
//
// Malformed input fails with ports.ErrMalformedFeatureInput instead of being
// passed through: an infinite close or dates that are not strictly increasing.
func (d *Deriver) Derive(series domain.PriceSeries) ([]domain.FeatureRow, error) {
	bars := make([]domain.PriceBar, 0, len(series.Bars))
	for _, b := range series.Bars {
		if b.HasClose() {
			bars = append(bars, b)
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars with a close price for %q: %w", series.Symbol, ports.ErrInsufficientData)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		if math.IsInf(b.Close, 0) {
			return nil, fmt.Errorf("close on %s is infinite: %w", b.Date.Format("2006-01-02"), ports.ErrMalformedFeatureInput)
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("dates not strictly increasing at %s: %w", b.Date.Format("2006-01-02"), ports.ErrMalformedFeatureInput)
		}
		closes[i] = b.Close
	}

	sma, err := indicators.SMA(closes, d.cfg.SMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("computing SMA: %w", err)
	}
	rsi, err := indicators.RSI(closes, d.cfg.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("computing RSI: %w", err)
	}
	macd, err := indicators.MACD(closes, d.cfg.macd())
	if err != nil {
		return nil, fmt.Errorf("computing MACD: %w", err)
	}

	rows := make([]domain.FeatureRow, 0, len(bars))
	for i, b := range bars {
		row := domain.FeatureRow{
			Date:       b.Date,
			Close:      b.Close,
			SMA:        sma[i],
			RSI:        rsi[i],
			MACD:       macd.MACD[i],
			MACDSignal: macd.Signal[i],
		}
		if !complete(row) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%d bars do not cover the %d-bar indicator warm-up: %w", len(bars), d.WarmUp(), ports.ErrInsufficientData)
	}
	return rows, nil
}

func complete(r domain.FeatureRow) bool {
	for _, v := range []float64{r.SMA, r.RSI, r.MACD, r.MACDSignal} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var defaultDeriver = &Deriver{cfg: DefaultConfig()}

// Derive computes feature rows with the default windows.
func Derive(series domain.PriceSeries) ([]domain.FeatureRow, error) {
	return defaultDeriver.Derive(series)
}
