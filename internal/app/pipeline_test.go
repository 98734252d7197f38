package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockPredictor/config"
	"stockPredictor/internal/dataset"
	"stockPredictor/internal/domain"
	"stockPredictor/internal/features"
	"stockPredictor/internal/marketdata"
	"stockPredictor/internal/modelstore"
	"stockPredictor/internal/ports"
	"stockPredictor/internal/training"
)

type mockLogger struct {
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// frameProvider serves a fixed frame through the real marketdata.Fetcher.
type frameProvider struct {
	frame *domain.RawFrame
}

func (p *frameProvider) Name() string { return "fixture" }

func (p *frameProvider) FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error) {
	return p.frame, nil
}

type memoryStore struct {
	saved map[string][]domain.PriceBar
}

func (s *memoryStore) SaveBars(ctx context.Context, symbol string, bars []domain.PriceBar) (int64, error) {
	if s.saved == nil {
		s.saved = make(map[string][]domain.PriceBar)
	}
	s.saved[symbol] = append(s.saved[symbol], bars...)
	return int64(len(bars)), nil
}

func (s *memoryStore) FindBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	return s.saved[symbol], nil
}

func (s *memoryStore) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	return len(s.saved[symbol]), nil
}

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// trendingFrame builds n daily closes with drift and a weekly wave, in the
// two-level layout of a yfinance download.
func trendingFrame(n int, fields ...string) *domain.RawFrame {
	dates := make([]time.Time, n)
	closes := make([]float64, n)
	for i := range dates {
		dates[i] = day0.AddDate(0, 0, i)
		closes[i] = 100 + 0.3*float64(i) + 4*math.Sin(float64(i)/5)
	}
	frame := domain.NewRawFrame(dates)
	for _, f := range fields {
		frame.Set(f, "AAPL", closes)
	}
	return frame
}

func testPipeline(t *testing.T, frame *domain.RawFrame, mode training.Mode, store ports.PriceRepository) (*Pipeline, PipelineConfig, *mockLogger) {
	t.Helper()
	tc := training.DefaultConfig()
	tc.DirectTrees = 15
	tc.Search = training.SearchConfig{
		Space: training.SearchSpace{
			NTrees:          []int{5, 10},
			MaxDepth:        []int{0, 8},
			MinSamplesSplit: []int{2, 10},
			MinSamplesLeaf:  []int{1, 4},
			Bootstrap:       []bool{true, false},
		},
		Iterations: 4,
		Folds:      3,
		Seed:       42,
	}
	cfg := PipelineConfig{
		Symbol:       "AAPL",
		Start:        day0,
		End:          day0.AddDate(0, 0, 500),
		Mode:         mode,
		TestFraction: dataset.DefaultTestFraction,
		ModelPath:    filepath.Join(t.TempDir(), "stock_model.gob"),
		Features:     features.DefaultConfig(),
		Training:     tc,
	}
	log := &mockLogger{}
	p, err := NewPipeline(cfg, log, marketdata.NewFetcher(&frameProvider{frame: frame}, log), store)
	require.NoError(t, err)
	return p, cfg, log
}

func TestPipeline_TrainDirect(t *testing.T) {
	store := &memoryStore{}
	p, cfg, log := testPipeline(t, trendingFrame(500, "Close", "Adj Close"), training.ModeDirect, store)

	report, err := p.Train(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 500, report.Bars)
	assert.Equal(t, 500-33, report.FeatureRows)
	assert.Equal(t, 466, report.TrainSize+report.TestSize)
	assert.Equal(t, 93, report.TestSize)
	assert.Equal(t, 15, report.Params.NTrees)
	assert.False(t, math.IsNaN(report.Evaluation.RMSE))
	assert.InDelta(t, math.Sqrt(report.Evaluation.MSE), report.Evaluation.RMSE, 1e-12)
	assert.Len(t, store.saved["AAPL"], 500)
	assert.Contains(t, log.infoMsgs, "Columns in the downloaded data")
	assert.Contains(t, log.infoMsgs, "Model trained and saved")

	artifact, err := modelstore.Load(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", artifact.Symbol)
	assert.Equal(t, "direct", artifact.Mode)
}

func TestPipeline_TrainTunedWithChart(t *testing.T) {
	p, cfg, _ := testPipeline(t, trendingFrame(300, "Close"), training.ModeTuned, nil)
	chart := filepath.Join(filepath.Dir(cfg.ModelPath), "holdout.png")
	p.cfg.ChartPath = chart

	report, err := p.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, training.ModeTuned, report.Mode)
	assert.False(t, math.IsNaN(report.CVScore))
	assert.Equal(t, chart, report.ChartPath)

	_, err = os.Stat(chart)
	assert.NoError(t, err)
}

func TestPipeline_AdjCloseOnly(t *testing.T) {
	p, cfg, log := testPipeline(t, trendingFrame(200, "Adj Close"), training.ModeDirect, nil)

	_, err := p.Train(context.Background())
	require.NoError(t, err)
	assert.Contains(t, log.warnMsgs, "Close column missing, using adjusted close instead")

	_, err = os.Stat(cfg.ModelPath)
	assert.NoError(t, err)
}

func TestPipeline_MissingCloseWritesNoArtifact(t *testing.T) {
	p, cfg, log := testPipeline(t, trendingFrame(200, "Open", "Volume"), training.ModeDirect, nil)

	_, err := p.Train(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrMissingRequiredColumn)
	assert.NotEmpty(t, log.errorMsgs)

	_, statErr := os.Stat(cfg.ModelPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipeline_TooFewBars(t *testing.T) {
	p, cfg, _ := testPipeline(t, trendingFrame(30, "Close"), training.ModeDirect, nil)

	_, err := p.Train(context.Background())
	assert.ErrorIs(t, err, ports.ErrInsufficientData)

	_, statErr := os.Stat(cfg.ModelPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewPipeline_Validation(t *testing.T) {
	fetcher := marketdata.NewFetcher(&frameProvider{}, &mockLogger{})

	_, err := NewPipeline(PipelineConfig{Symbol: "AAPL", ModelPath: "x"}, nil, fetcher, nil)
	assert.Error(t, err)

	_, err = NewPipeline(PipelineConfig{ModelPath: "x", Features: features.DefaultConfig()}, &mockLogger{}, fetcher, nil)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = NewPipeline(PipelineConfig{Symbol: "AAPL", ModelPath: "x"}, &mockLogger{}, fetcher, nil)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest, "zero indicator windows are rejected")
}

func TestNewProvider(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{"yahoo", config.Config{DataProvider: config.ProviderYahoo}, "yahoo", false},
		{"polygon", config.Config{DataProvider: config.ProviderPolygon, PolygonAPIKey: "k"}, "polygon", false},
		{"binance", config.Config{DataProvider: config.ProviderBinance}, "binance", false},
		{"sqlite", config.Config{DataProvider: config.ProviderSQLite, DBPath: filepath.Join(dir, "p.db")}, "sqlite", false},
		{"csv", config.Config{DataProvider: config.ProviderCSV, CSVPath: filepath.Join(dir, "p.csv")}, "csv", false},
		{"unknown", config.Config{DataProvider: "bloomberg"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, closeFn, err := NewProvider(&tt.cfg, &mockLogger{})
			defer closeFn()
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrConfigurationError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, provider.Name())
		})
	}
}
