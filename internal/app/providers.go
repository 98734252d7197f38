package app

import (
	"fmt"

	"stockPredictor/config"
	"stockPredictor/internal/adapters/binanceclient"
	"stockPredictor/internal/adapters/csvsource"
	"stockPredictor/internal/adapters/polygonclient"
	"stockPredictor/internal/adapters/sqlite"
	"stockPredictor/internal/adapters/yahoo"
	"stockPredictor/internal/features"
	"stockPredictor/internal/ports"
)

// NewProvider builds the price provider selected by DATA_PROVIDER. The
// returned close function releases any resources the provider holds.
func NewProvider(cfg *config.Config, logger ports.Logger) (ports.PriceProvider, func() error, error) {
	noop := func() error { return nil }

	var (
		provider ports.PriceProvider
		closer   = noop
		err      error
	)
	switch cfg.DataProvider {
	case config.ProviderYahoo:
		provider, err = yahoo.New(yahoo.Config{BaseURL: cfg.YahooBaseURL, Timeout: cfg.HTTPTimeout, Logger: logger})
	case config.ProviderPolygon:
		provider, err = polygonclient.New(polygonclient.Config{APIKey: cfg.PolygonAPIKey, Logger: logger})
	case config.ProviderBinance:
		provider, err = binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.BinanceTestnet,
			Logger:     logger,
		})
	case config.ProviderSQLite:
		var repo *sqlite.Repository
		repo, err = sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: logger})
		if err == nil {
			provider, closer = repo, repo.Close
		}
	case config.ProviderCSV:
		provider, err = csvsource.New(cfg.CSVPath, logger)
	default:
		err = fmt.Errorf("unknown data provider %q: %w", cfg.DataProvider, ports.ErrConfigurationError)
	}
	if err != nil {
		return nil, noop, err
	}
	return provider, closer, nil
}

// PipelineConfigFrom maps the application configuration onto a training run.
func PipelineConfigFrom(cfg *config.Config) PipelineConfig {
	return PipelineConfig{
		Symbol:       cfg.Symbol,
		Start:        cfg.StartDate,
		End:          cfg.EndDate,
		Mode:         cfg.TrainMode,
		TestFraction: cfg.TestFraction,
		ModelPath:    cfg.ModelPath,
		ChartPath:    cfg.ChartPath,
		Features:     features.DefaultConfig(),
		Training:     cfg.TrainingConfig(),
	}
}
