package main

import (
	"context"
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"stockPredictor/config"
	"stockPredictor/internal/adapters/logger"
	"stockPredictor/internal/app"
	"stockPredictor/internal/marketdata"
	"stockPredictor/internal/ports"
	"stockPredictor/internal/serving"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel)

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

	// A missing artifact leaves the placeholder endpoints running.
	model, err := serving.LoadModelHandle(cfg.ModelPath)
	switch {
	case err == nil:
		appLogger.Info(ctx, "Model loaded", map[string]interface{}{
			"path":      cfg.ModelPath,
			"symbol":    model.Symbol(),
			"trainedAt": model.TrainedAt(),
		})
	case errors.Is(err, ports.ErrNotFound):
		appLogger.Warn(ctx, "No model artifact found, serving without predictions", map[string]interface{}{"path": cfg.ModelPath})
		model = nil
	default:
		appLogger.Error(ctx, err, "FATAL: Failed to load model artifact", map[string]interface{}{"path": cfg.ModelPath})
		log.Fatalf("FATAL: Failed to load model artifact: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	handler := serving.NewHandler(serving.HandlerConfig{
		Fetcher:       marketdata.NewFetcher(provider, appLogger),
		Model:         model,
		Logger:        appLogger,
		DefaultPeriod: cfg.HistoryPeriod,
	})
	serving.SetupRoutes(router, handler, cfg.CORSOrigins)

	appLogger.Info(ctx, "Starting server", map[string]interface{}{"port": cfg.Port, "provider": provider.Name()})
	if err := router.Run(":" + cfg.Port); err != nil {
		appLogger.Error(ctx, err, "Server exited with error")
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
