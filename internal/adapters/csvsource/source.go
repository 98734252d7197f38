// Package csvsource serves price history from a local CSV file.
package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
	"stockPredictor/internal/utils"
)

// Source implements ports.PriceProvider over a CSV written by fetch_prices or
// downloaded with yfinance. The window is applied by the caller.
type Source struct {
	path   string
	logger ports.Logger
}

// New creates a CSV source.
func New(path string, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("CSV_PATH is required for the csv provider: %w", ports.ErrConfigurationError)
	}
	return &Source{path: path, logger: logger}, nil
}

// Name implements ports.PriceProvider.
func (s *Source) Name() string { return "csv" }

// FetchFrame reads the whole file; start and end are applied by the fetcher.
func (s *Source) FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error) {
	frame, err := utils.ReadFrameFromCSVFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("price file %s: %w", s.path, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("price file %s: %w: %w", s.path, ports.ErrMalformedFeatureInput, err)
	}
	s.logger.Debug(ctx, "Loaded price file", map[string]interface{}{"path": s.path, "rows": frame.Len()})
	return frame, nil
}
