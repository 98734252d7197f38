package yahoo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

type mockLogger struct {
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// 2024-01-02 and 2024-01-03 14:30 UTC (09:30 New York).
const chartBody = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","currency":"USD","gmtoffset":-18000},
  "timestamp":[1704205800,1704292200,1704378600],
  "indicators":{
    "quote":[{"open":[187.15,184.22,182.15],"high":[188.44,185.88,183.09],"low":[183.89,183.43,180.88],
              "close":[185.64,null,181.91],"volume":[82488700,58414500,71983600]}],
    "adjclose":[{"adjclose":[184.9,183.5,181.2]}]
  }}],"error":null}}`

func TestFetchFrame(t *testing.T) {
	var query map[string]string
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		agent = r.Header.Get("User-Agent")
		query = map[string]string{
			"interval": r.URL.Query().Get("interval"),
			"period1":  r.URL.Query().Get("period1"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Logger: &mockLogger{}})
	require.NoError(t, err)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	frame, err := c.FetchFrame(context.Background(), "AAPL", start, start.AddDate(0, 0, 3))
	require.NoError(t, err)

	assert.Equal(t, "1d", query["interval"])
	assert.Equal(t, "1704153600", query["period1"])
	assert.NotEmpty(t, agent)

	require.Equal(t, 3, frame.Len())
	assert.Equal(t, start, frame.Dates[0])
	assert.Equal(t, start.AddDate(0, 0, 2), frame.Dates[2])

	closes := frame.Columns[domain.ColumnKey{Field: "Close", Ticker: "AAPL"}]
	require.Len(t, closes, 3)
	assert.Equal(t, 185.64, closes[0])
	assert.True(t, math.IsNaN(closes[1]))
	assert.Equal(t, []float64{184.9, 183.5, 181.2}, frame.Columns[domain.ColumnKey{Field: "Adj Close", Ticker: "AAPL"}])
	assert.Len(t, frame.Columns, 6)
}

func TestFetchFrame_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unknown symbol", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, ports.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, `Too Many Requests`, ports.ErrRateLimited},
		{"server error", http.StatusBadGateway, ``, ports.ErrProviderUnavailable},
		{"error in ok body", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"gone"}}}`, ports.ErrNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ports.ErrNotFound},
		{"bad json", http.StatusOK, `{"chart":`, ports.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{BaseURL: srv.URL, Logger: &mockLogger{}})
			require.NoError(t, err)
			start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
			_, err = c.FetchFrame(context.Background(), "ZZZZ", start, start.AddDate(0, 1, 0))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchFrame_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	log := &mockLogger{}
	c, err := New(Config{BaseURL: url, Logger: log, Timeout: time.Second})
	require.NoError(t, err)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = c.FetchFrame(context.Background(), "AAPL", start, start.AddDate(0, 0, 5))
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)
	assert.Len(t, log.errorMsgs, 1)
}
