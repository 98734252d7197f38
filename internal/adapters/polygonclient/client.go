// Package polygonclient implements ports.PriceProvider over Polygon.io daily aggregates.
package polygonclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

const pageLimit = 50000

// Config holds configuration for the Polygon client.
type Config struct {
	APIKey string
	Logger ports.Logger
}

// Client fetches split-adjusted daily aggregates.
type Client struct {
	rest   *polygon.Client
	logger ports.Logger
}

// New creates a Polygon client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Polygon client")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("POLYGON_API_KEY is required for the polygon provider: %w", ports.ErrConfigurationError)
	}
	return &Client{rest: polygon.New(cfg.APIKey), logger: cfg.Logger}, nil
}

// Name implements ports.PriceProvider.
func (c *Client) Name() string { return "polygon" }

// FetchFrame lists daily aggregates for [start, end). Polygon's range is
// inclusive, so the request stops the day before end.
func (c *Client) FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error) {
	op := "FetchFrame"
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Timespan("day"),
		From:       models.Millis(start),
		To:         models.Millis(end.AddDate(0, 0, -1)),
	}.
		WithAdjusted(true).
		WithOrder(models.Order("asc")).
		WithLimit(pageLimit)

	it := c.rest.ListAggs(ctx, params)
	var aggs []models.Agg
	for it.Next() {
		aggs = append(aggs, it.Item())
	}
	if err := it.Err(); err != nil {
		return nil, c.handleError(ctx, err, op, symbol)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "aggs": len(aggs)})
	return aggsToFrame(aggs), nil
}

// aggsToFrame maps aggregates to a flat OHLCV frame. Polygon stamps daily bars
// at exchange-local midnight, which falls on the same UTC calendar day.
func aggsToFrame(aggs []models.Agg) *domain.RawFrame {
	n := len(aggs)
	dates := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	vol := make([]float64, n)
	for i, a := range aggs {
		t := time.Time(a.Timestamp).UTC()
		dates[i] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		open[i], high[i], low[i], cls[i], vol[i] = a.Open, a.High, a.Low, a.Close, a.Volume
	}
	frame := domain.NewRawFrame(dates)
	frame.Set("o", "", open)
	frame.Set("h", "", high)
	frame.Set("l", "", low)
	frame.Set("c", "", cls)
	frame.Set("v", "", vol)
	return frame
}

func (c *Client) handleError(ctx context.Context, err error, operation, symbol string) error {
	fields := map[string]interface{}{"operation": operation, "symbol": symbol, "originalError": err.Error()}

	var apiErr *models.ErrorResponse
	if errors.As(err, &apiErr) {
		fields["status"] = apiErr.StatusCode
		var mappedErr error
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			mappedErr = ports.ErrAuthenticationFailed
		case http.StatusNotFound:
			mappedErr = ports.ErrNotFound
		case http.StatusTooManyRequests:
			mappedErr = ports.ErrRateLimited
		case http.StatusBadRequest:
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrProviderUnavailable
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	}
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}
