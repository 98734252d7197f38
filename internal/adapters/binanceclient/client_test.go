package binanceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func klineRow(open time.Time, cls float64) []interface{} {
	ms := open.UnixMilli()
	c := strconv.FormatFloat(cls, 'f', 2, 64)
	return []interface{}{ms, c, c, c, c, "10.5", ms + 86399999, "0", 1, "0", "0", "0"}
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{Logger: &mockLogger{}, UseTestnet: true})
	require.NoError(t, err)
	assert.Equal(t, baseURLTestnet, c.spotClient.BaseURL)
	assert.Equal(t, "binance", c.Name())
}

func TestFetchFrame(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		gotInterval = r.URL.Query().Get("interval")
		rows := [][]interface{}{
			klineRow(start, 42000.5),
			klineRow(start.AddDate(0, 0, 1), 42500),
			klineRow(start.AddDate(0, 0, 2), 41900.25),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c, err := New(Config{Logger: &mockLogger{}, BaseURL: srv.URL})
	require.NoError(t, err)

	frame, err := c.FetchFrame(context.Background(), "BTCUSDT", start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, "1d", gotInterval)
	require.Equal(t, 3, frame.Len())
	assert.Equal(t, start, frame.Dates[0])

	var closes []float64
	for key, col := range frame.Columns {
		if key.Field == "Close" {
			closes = col
		}
	}
	assert.Equal(t, []float64{42000.5, 42500, 41900.25}, closes)
}

func TestFetchFrame_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	log := &mockLogger{}
	c, err := New(Config{Logger: log, BaseURL: srv.URL})
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = c.FetchFrame(context.Background(), "NOPE", start, start.AddDate(0, 1, 0))
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Len(t, log.errorMsgs, 1)
}
