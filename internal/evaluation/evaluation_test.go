package evaluation

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockPredictor/internal/ports"
)

type fixedPredictor struct {
	out []float64
	err error
}

func (p *fixedPredictor) Predict(x []float64) (float64, error) { return 0, p.err }

func (p *fixedPredictor) PredictBatch(X [][]float64) ([]float64, error) {
	return p.out, p.err
}

func TestMetrics(t *testing.T) {
	actual := []float64{3, -0.5, 2, 7}
	pred := []float64{2.5, 0.0, 2, 8}

	assert.InDelta(t, 0.5, MAE(actual, pred), 1e-12)
	assert.InDelta(t, 0.375, MSE(actual, pred), 1e-12)
	assert.InDelta(t, 0.948608137, R2(actual, pred), 1e-9)

	r := Score(actual, pred)
	assert.InDelta(t, math.Sqrt(0.375), r.RMSE, 1e-12)
	assert.Equal(t, 4, r.N)
}

func TestR2_EdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, R2([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.Equal(t, 1.0, R2([]float64{5, 5, 5}, []float64{5, 5, 5}))
	assert.Equal(t, 0.0, R2([]float64{5, 5, 5}, []float64{5, 6, 5}))
	assert.True(t, math.IsNaN(R2([]float64{1}, []float64{1})))
	// Predicting the mean scores zero; worse than the mean is negative.
	assert.InDelta(t, 0.0, R2([]float64{1, 3}, []float64{2, 2}), 1e-12)
	assert.Less(t, R2([]float64{1, 3}, []float64{3, 1}), 0.0)
}

func TestEvaluate(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []float64{10, 20, 30}

	r, err := Evaluate(&fixedPredictor{out: []float64{10, 20, 30}}, X, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.MAE)
	assert.Equal(t, 1.0, r.R2)
	assert.GreaterOrEqual(t, r.RMSE, 0.0)

	_, err = Evaluate(&fixedPredictor{}, nil, nil)
	assert.ErrorIs(t, err, ports.ErrInsufficientData)

	_, err = Evaluate(&fixedPredictor{}, X, y[:2])
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	boom := errors.New("boom")
	_, err = Evaluate(&fixedPredictor{err: boom}, X, y)
	assert.ErrorIs(t, err, boom)
}

func TestReport_String(t *testing.T) {
	s := Report{MAE: 1.5, MSE: 4, RMSE: 2, R2: 0.75}.String()
	assert.Contains(t, s, "Model Evaluation:")
	assert.Contains(t, s, "Mean Absolute Error: 1.5000")
	assert.Contains(t, s, "Mean Squared Error: 4.0000")
	assert.Contains(t, s, "Root Mean Squared Error: 2.0000")
	assert.Contains(t, s, "R-squared Score: 0.7500")
}

func TestRenderChart(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)}

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, "AAPL", dates, []float64{1, 2, 3}, []float64{1.1, 1.9, 3.2}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	err := RenderChart(&buf, "AAPL", dates[:1], []float64{1}, []float64{1})
	assert.ErrorIs(t, err, ports.ErrInsufficientData)

	err = RenderChart(&buf, "AAPL", dates, []float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestSaveChart(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{start, start.AddDate(0, 0, 1)}
	path := filepath.Join(t.TempDir(), "charts", "holdout.png")

	require.NoError(t, SaveChart(path, "MSFT", dates, []float64{1, 2}, []float64{2, 1}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
