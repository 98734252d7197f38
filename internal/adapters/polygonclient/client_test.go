package polygonclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestNew(t *testing.T) {
	_, err := New(Config{Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	c, err := New(Config{APIKey: "key", Logger: &mockLogger{}})
	require.NoError(t, err)
	assert.Equal(t, "polygon", c.Name())
}

func TestAggsToFrame(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	aggs := []models.Agg{
		{Timestamp: models.Millis(time.Date(2024, 1, 2, 0, 0, 0, 0, ny)), Open: 187.15, High: 188.44, Low: 183.89, Close: 185.64, Volume: 82488700},
		{Timestamp: models.Millis(time.Date(2024, 1, 3, 0, 0, 0, 0, ny)), Open: 184.22, High: 185.88, Low: 183.43, Close: 184.25, Volume: 58414500},
	}

	frame := aggsToFrame(aggs)
	require.Equal(t, 2, frame.Len())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), frame.Dates[0])
	assert.Equal(t, []float64{185.64, 184.25}, frame.Columns[domain.ColumnKey{Field: "c"}])
	assert.Len(t, frame.Columns, 5)
}

func TestHandleError(t *testing.T) {
	c, err := New(Config{APIKey: "key", Logger: &mockLogger{}})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &models.ErrorResponse{StatusCode: 401}, ports.ErrAuthenticationFailed},
		{"rate limit", fmt.Errorf("wrapped: %w", &models.ErrorResponse{StatusCode: 429}), ports.ErrRateLimited},
		{"server", &models.ErrorResponse{StatusCode: 503}, ports.ErrProviderUnavailable},
		{"deadline", context.DeadlineExceeded, ports.ErrTimeout},
		{"canceled", context.Canceled, ports.ErrContextCanceled},
		{"network", fmt.Errorf("dial tcp: connection refused"), ports.ErrConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.handleError(ctx, tt.err, "FetchFrame", "AAPL"), tt.want)
		})
	}
}
