package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"stockPredictor/config"
	"stockPredictor/internal/adapters/logger"
	"stockPredictor/internal/adapters/sqlite"
	"stockPredictor/internal/app"
	"stockPredictor/internal/marketdata"
	"stockPredictor/internal/utils"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel)

	// 3. Initialize Price Provider
	provider, closeProvider, err := app.NewProvider(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize price provider")
		log.Fatalf("FATAL: Failed to initialize price provider: %v", err)
	}
	defer closeProvider()

	fetcher := marketdata.NewFetcher(provider, appLogger)

	fmt.Printf("Fetching daily prices for %s from %s to %s via %s...\n",
		cfg.Symbol, cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"), provider.Name())
	series, err := fetcher.Fetch(ctx, cfg.Symbol, cfg.StartDate, cfg.EndDate)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching prices")
		log.Fatalf("Error fetching prices: %v", err)
	}

	// 4. Persist to the bar cache
	if cfg.DataProvider != config.ProviderSQLite {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "Error opening database repository")
			log.Fatalf("Error opening database repository: %v", err)
		}
		defer repo.Close()

		n, err := repo.SaveBars(ctx, series.Symbol, series.Bars)
		if err != nil {
			appLogger.Error(ctx, err, "Error saving bars")
			log.Fatalf("Error saving bars: %v", err)
		}
		appLogger.Info(ctx, "Saved bars to database", map[string]interface{}{"rows": n, "db": cfg.DBPath})
	}

	// 5. Export CSV
	filename := filepath.Join("data", fmt.Sprintf("%s_1d_%s_to_%s.csv",
		series.Symbol, cfg.StartDate.Format("20060102"), cfg.EndDate.Format("20060102")))
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		log.Fatalf("Error creating data directory: %v", err)
	}
	if err := utils.WritePricesToCSV(series, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename, "bars": series.Len()})
}
