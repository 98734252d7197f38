package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockPredictor/internal/adapters/logger" // Import the logger package for LogLevel
	"stockPredictor/internal/training"
)

const dateLayout = "2006-01-02"

// Supported DATA_PROVIDER values.
const (
	ProviderYahoo   = "yahoo"
	ProviderPolygon = "polygon"
	ProviderBinance = "binance"
	ProviderSQLite  = "sqlite"
	ProviderCSV     = "csv"
)

// Config holds all application configuration.
type Config struct {
	// Training run
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	TrainMode training.Mode

	// Data providers
	DataProvider     string
	PolygonAPIKey    string
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceTestnet   bool
	YahooBaseURL     string
	CSVPath          string
	HTTPTimeout      time.Duration

	// Storage
	DBPath    string
	ModelPath string
	ChartPath string // empty disables the holdout chart

	// Model
	TestFraction     float64
	ModelSeed        uint64
	DirectTrees      int
	SearchSeed       uint64
	SearchIterations int
	SearchFolds      int
	SearchWorkers    int

	// Logging
	LogLevel  logger.LogLevel
	LogFormat logger.Format

	// HTTP server
	Port          string
	GinMode       string
	CORSOrigins   []string
	HistoryPeriod string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Training run
	cfg.Symbol = strings.ToUpper(strings.TrimSpace(getEnv("SYMBOL", "AAPL")))
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.StartDate, err = getEnvAsDate("START_DATE", "2020-01-01")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid START_DATE: %v", err))
	}
	cfg.EndDate, err = getEnvAsDate("END_DATE", "2022-01-01")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid END_DATE: %v", err))
	}
	if !cfg.StartDate.IsZero() && !cfg.EndDate.IsZero() && !cfg.StartDate.Before(cfg.EndDate) {
		errs = append(errs, "START_DATE must be before END_DATE")
	}

	cfg.TrainMode, err = training.ParseMode(getEnv("TRAIN_MODE", string(training.ModeDirect)))
	if err != nil {
		errs = append(errs, err.Error())
	}

	// Data providers
	cfg.DataProvider = strings.ToLower(getEnv("DATA_PROVIDER", ProviderYahoo))
	cfg.PolygonAPIKey = getEnv("POLYGON_API_KEY", "")
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.YahooBaseURL = getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com")
	cfg.CSVPath = getEnv("CSV_PATH", "")

	switch cfg.DataProvider {
	case ProviderYahoo, ProviderBinance, ProviderSQLite:
	case ProviderPolygon:
		if cfg.PolygonAPIKey == "" {
			errs = append(errs, "POLYGON_API_KEY must be set when DATA_PROVIDER=polygon")
		}
	case ProviderCSV:
		if cfg.CSVPath == "" {
			errs = append(errs, "CSV_PATH must be set when DATA_PROVIDER=csv")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown DATA_PROVIDER %q (want yahoo, polygon, binance, sqlite or csv)", cfg.DataProvider))
	}

	timeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)
	if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	// Storage
	cfg.DBPath = getEnv("DB_PATH", "./data/prices.db")
	defaultModel := "./data/stock_model.gob"
	if cfg.TrainMode == training.ModeTuned {
		defaultModel = "./data/stock_model_tuned.gob"
	}
	cfg.ModelPath = getEnv("MODEL_PATH", defaultModel)
	cfg.ChartPath = getEnv("CHART_PATH", "")

	// Model
	cfg.TestFraction, err = getEnvAsFloatRequired("TEST_FRACTION", 0.2)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TEST_FRACTION: %v", err))
	} else if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		errs = append(errs, "TEST_FRACTION must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.ModelSeed, err = getEnvAsUint64Required("MODEL_SEED", 42)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MODEL_SEED: %v", err))
	}
	cfg.SearchSeed, err = getEnvAsUint64Required("SEARCH_SEED", 42)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SEARCH_SEED: %v", err))
	}

	cfg.DirectTrees, err = getEnvAsIntRequired("DIRECT_TREES", 100)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DIRECT_TREES: %v", err))
	} else if cfg.DirectTrees <= 0 {
		errs = append(errs, "DIRECT_TREES must be positive")
	}

	cfg.SearchIterations, err = getEnvAsIntRequired("SEARCH_ITERATIONS", 100)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SEARCH_ITERATIONS: %v", err))
	} else if cfg.SearchIterations <= 0 {
		errs = append(errs, "SEARCH_ITERATIONS must be positive")
	}

	cfg.SearchFolds, err = getEnvAsIntRequired("SEARCH_FOLDS", 3)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SEARCH_FOLDS: %v", err))
	} else if cfg.SearchFolds < 2 {
		errs = append(errs, "SEARCH_FOLDS must be at least 2")
	}

	cfg.SearchWorkers = getEnvAsInt("SEARCH_WORKERS", 0)
	if cfg.SearchWorkers < 0 {
		errs = append(errs, "SEARCH_WORKERS cannot be negative")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = logger.ParseFormat(getEnv("LOG_FORMAT", string(logger.FormatText)))

	// HTTP server
	cfg.Port = getEnv("PORT", "5000")
	cfg.GinMode = getEnv("GIN_MODE", "release")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))
	cfg.HistoryPeriod = getEnv("HISTORY_PERIOD", "1y")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// TrainingConfig maps the model settings onto the trainer configuration.
func (c *Config) TrainingConfig() training.Config {
	tc := training.DefaultConfig()
	tc.Seed = c.ModelSeed
	tc.DirectTrees = c.DirectTrees
	tc.Search.Seed = c.SearchSeed
	tc.Search.Iterations = c.SearchIterations
	tc.Search.Folds = c.SearchFolds
	tc.Search.Workers = c.SearchWorkers
	return tc
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsUint64Required(key string, defaultValue uint64) (uint64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDate(key, defaultValue string) (time.Time, error) {
	valueStr := getEnv(key, defaultValue)
	value, err := time.ParseInLocation(dateLayout, strings.TrimSpace(valueStr), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s' for key %s (want YYYY-MM-DD): %w", valueStr, key, err)
	}
	return value, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
