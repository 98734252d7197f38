package ports

import (
	"context"
	"time"

	"stockPredictor/internal/domain"
)

// PriceProvider defines the interface for a source of daily price history.
// Implementations return the provider's own column layout; normalization into a
// domain.PriceSeries happens in the marketdata package.
type PriceProvider interface {
	// Name returns a short identifier used in logs (e.g. "yahoo").
	Name() string

	// FetchFrame retrieves daily bars for symbol with start <= date < end.
	FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error)
}
