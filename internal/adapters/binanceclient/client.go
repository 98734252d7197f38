package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	dailyInterval = "1d"
	maxLimit      = 1000
)

// Client implements ports.PriceProvider over Binance spot daily klines, so
// crypto pairs such as BTCUSDT can be trained on like any ticker.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // overrides the production/testnet URL when set
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "Binance API keys not set, using public market data endpoints only")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{
		spotClient: client,
		logger:     cfg.Logger,
	}, nil
}

// Name implements ports.PriceProvider.
func (c *Client) Name() string { return "binance" }

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "no such host") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// FetchFrame pages through daily klines with open time in [start, end) and
// returns them as a flat OHLCV frame.
func (c *Client) FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error) {
	op := "FetchFrame"
	var bars []domain.PriceBar
	from := start

	for {
		klines, err := c.spotClient.NewKlinesService().
			Symbol(symbol).
			Interval(dailyInterval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli() - 1).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			bar, err := translateBinanceKline(bk)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate daily kline: %w", err), op)
			}
			bars = append(bars, bar)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime + 1)
		if !from.Before(end) || len(klines) < maxLimit {
			break
		}
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "bars": len(bars)})
	return barsToFrame(bars), nil
}

func barsToFrame(bars []domain.PriceBar) *domain.RawFrame {
	dates := make([]time.Time, len(bars))
	open := make([]float64, len(bars))
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	cls := make([]float64, len(bars))
	vol := make([]float64, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
		open[i], high[i], low[i], cls[i], vol[i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}
	frame := domain.NewRawFrame(dates)
	frame.Set("Open", "", open)
	frame.Set("High", "", high)
	frame.Set("Low", "", low)
	frame.Set("Close", "", cls)
	frame.Set("Volume", "", vol)
	return frame
}

func translateBinanceKline(bk *binance.Kline) (domain.PriceBar, error) {
	if bk == nil {
		return domain.PriceBar{}, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return domain.PriceBar{
		Date:     time.UnixMilli(bk.OpenTime).UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    cls,
		Volume:   vol,
		AdjClose: math.NaN(), // spot pairs have no corporate actions
	}, nil
}
