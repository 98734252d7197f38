package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"stockPredictor/config"
	"stockPredictor/internal/adapters/logger"
	"stockPredictor/internal/adapters/sqlite"
	"stockPredictor/internal/app"
	"stockPredictor/internal/marketdata"
	"stockPredictor/internal/ports"
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
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": string(cfg.LogFormat)})

	// 3. Initialize Price Provider
	provider, closeProvider, err := app.NewProvider(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize price provider")
		log.Fatalf("FATAL: Failed to initialize price provider: %v", err)
	}
	defer func() {
		if err := closeProvider(); err != nil {
			appLogger.Error(ctx, err, "Error closing price provider")
		}
	}()
	appLogger.Info(ctx, "Price provider initialized", map[string]interface{}{"provider": provider.Name()})

	// 4. Initialize Bar Cache (skipped when the provider already reads from it)
	var store ports.PriceRepository
	if cfg.DataProvider != config.ProviderSQLite && cfg.DBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			appLogger.Warn(ctx, "Bar cache unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			defer func() {
				if err := repo.Close(); err != nil {
					appLogger.Error(ctx, err, "Error closing database repository")
				}
			}()
			store = repo
		}
	}

	// 5. Build and run the pipeline
	pipeline, err := app.NewPipeline(app.PipelineConfigFrom(cfg), appLogger, marketdata.NewFetcher(provider, appLogger), store)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize training pipeline")
		log.Fatalf("FATAL: Failed to initialize training pipeline: %v", err)
	}

	report, err := pipeline.Train(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Training run failed")
		log.Fatalf("FATAL: Training run failed: %v", err)
	}

	fmt.Println(report.Evaluation.String())
	fmt.Printf("Parameters: %s\n", report.Params)
	fmt.Printf("Model saved to %s\n", report.ModelPath)
	if report.ChartPath != "" {
		fmt.Printf("Chart saved to %s\n", report.ChartPath)
	}
}
