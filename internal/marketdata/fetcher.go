package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

// Fetcher retrieves and normalizes daily history from a PriceProvider.
type Fetcher struct {
	provider ports.PriceProvider
	logger   ports.Logger
}

// NewFetcher creates a Fetcher backed by provider.
func NewFetcher(provider ports.PriceProvider, logger ports.Logger) *Fetcher {
	return &Fetcher{provider: provider, logger: logger}
}

// Fetch returns the bars for symbol with start <= date < end, oldest first.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.PriceSeries{}, fmt.Errorf("empty symbol: %w", ports.ErrInvalidRequest)
	}
	start, end = Day(start), Day(end)
	if !start.Before(end) {
		return domain.PriceSeries{}, fmt.Errorf("start %s is not before end %s: %w",
			start.Format(DateLayout), end.Format(DateLayout), ports.ErrInvalidRequest)
	}

	f.logger.Info(ctx, "Fetching price history", map[string]interface{}{
		"provider": f.provider.Name(),
		"symbol":   symbol,
		"start":    start.Format(DateLayout),
		"end":      end.Format(DateLayout),
	})

	frame, err := f.provider.FetchFrame(ctx, symbol, start, end)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return domain.PriceSeries{}, fmt.Errorf("fetching %s: %w", symbol, ports.ErrContextCanceled)
		case errors.Is(err, context.DeadlineExceeded):
			return domain.PriceSeries{}, fmt.Errorf("fetching %s: %w", symbol, ports.ErrTimeout)
		}
		return domain.PriceSeries{}, fmt.Errorf("fetching %s from %s: %w", symbol, f.provider.Name(), err)
	}

	series, err := Normalize(ctx, frame, symbol, f.logger)
	if err != nil {
		return domain.PriceSeries{}, err
	}

	kept := series.Bars[:0:0]
	for _, b := range series.Bars {
		if !b.Date.Before(start) && b.Date.Before(end) {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("no bars for %s in [%s, %s): %w",
			symbol, start.Format(DateLayout), end.Format(DateLayout), ports.ErrNotFound)
	}
	series.Bars = kept

	f.logger.Info(ctx, "Fetched price history", map[string]interface{}{
		"symbol": symbol,
		"rows":   len(kept),
		"first":  kept[0].Date.Format(DateLayout),
		"last":   kept[len(kept)-1].Date.Format(DateLayout),
	})
	return series, nil
}
