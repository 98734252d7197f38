// Package yahoo implements ports.PriceProvider over the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	chartPath      = "/v8/finance/chart/{symbol}"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) stock-predictor"
)

// Config holds configuration for the Yahoo client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// Client fetches daily bars from Yahoo Finance.
type Client struct {
	http   *resty.Client
	logger ports.Logger
}

// New creates a Yahoo client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, logger: cfg.Logger}, nil
}

// Name implements ports.PriceProvider.
func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []map[string][]*float64 `json:"quote"`
		AdjClose []map[string][]*float64 `json:"adjclose"`
	} `json:"indicators"`
}

// quote fields mapped to the column names the yfinance download used.
var quoteColumns = []struct{ key, column string }{
	{"open", "Open"},
	{"high", "High"},
	{"low", "Low"},
	{"close", "Close"},
	{"volume", "Volume"},
}

// FetchFrame downloads daily bars for [start, end). Columns are keyed by
// (field, symbol), the two-level layout of a yfinance download.
func (c *Client) FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error) {
	op := "FetchFrame"
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(start.Unix(), 10),
			"period2":              strconv.FormatInt(end.Unix(), 10),
			"interval":             "1d",
			"events":               "history",
			"includeAdjustedClose": "true",
		}).
		Get(chartPath)
	if err != nil {
		return nil, c.handleError(ctx, err, op, symbol)
	}

	var body chartResponse
	decodeErr := json.Unmarshal(resp.Body(), &body)

	if resp.IsError() {
		return nil, c.handleStatus(ctx, resp.StatusCode(), body.Chart.Error, op, symbol)
	}
	if decodeErr != nil {
		return nil, c.handleError(ctx, fmt.Errorf("decoding chart response: %w", decodeErr), op, symbol)
	}
	if body.Chart.Error != nil {
		return nil, c.handleStatus(ctx, http.StatusNotFound, body.Chart.Error, op, symbol)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: no chart result for %s: %w", op, symbol, ports.ErrNotFound)
	}

	frame, err := toFrame(body.Chart.Result[0], symbol)
	if err != nil {
		return nil, c.handleError(ctx, err, op, symbol)
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "rows": frame.Len()})
	return frame, nil
}

func toFrame(res chartResult, symbol string) (*domain.RawFrame, error) {
	n := len(res.Timestamp)
	dates := make([]time.Time, n)
	for i, ts := range res.Timestamp {
		local := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		dates[i] = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	}
	frame := domain.NewRawFrame(dates)
	if n == 0 {
		return frame, nil
	}

	if len(res.Indicators.Quote) > 0 {
		q := res.Indicators.Quote[0]
		for _, qc := range quoteColumns {
			raw, ok := q[qc.key]
			if !ok {
				continue
			}
			values, err := column(raw, n, qc.key)
			if err != nil {
				return nil, err
			}
			frame.Set(qc.column, symbol, values)
		}
	}
	if len(res.Indicators.AdjClose) > 0 {
		if raw, ok := res.Indicators.AdjClose[0]["adjclose"]; ok {
			values, err := column(raw, n, "adjclose")
			if err != nil {
				return nil, err
			}
			frame.Set("Adj Close", symbol, values)
		}
	}
	return frame, nil
}

func column(raw []*float64, n int, name string) ([]float64, error) {
	if len(raw) != n {
		return nil, fmt.Errorf("%s has %d values for %d timestamps", name, len(raw), n)
	}
	out := make([]float64, n)
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}

func (c *Client) handleStatus(ctx context.Context, status int, apiErr *chartError, operation, symbol string) error {
	fields := map[string]interface{}{"operation": operation, "symbol": symbol, "status": status}
	msg := http.StatusText(status)
	if apiErr != nil {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Description
		msg = apiErr.Description
	}

	var mappedErr error
	switch {
	case status == http.StatusNotFound:
		mappedErr = ports.ErrNotFound
	case status == http.StatusTooManyRequests:
		mappedErr = ports.ErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		mappedErr = ports.ErrAuthenticationFailed
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		mappedErr = ports.ErrInvalidRequest
	case status >= 500:
		mappedErr = ports.ErrProviderUnavailable
	default:
		mappedErr = ports.ErrUnknown
	}
	err := fmt.Errorf("%s failed for %s: %w: %s", operation, symbol, mappedErr, msg)
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
	return err
}

func (c *Client) handleError(ctx context.Context, err error, operation, symbol string) error {
	fields := map[string]interface{}{"operation": operation, "symbol": symbol}
	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "no such host"),
		strings.Contains(err.Error(), "connection reset by peer"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrProviderUnavailable, err)
	}
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}
