package serving

import (
	"context"
	_ "embed"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

//go:embed index.html
var indexHTML []byte

const (
	defaultSymbol  = "AAPL"
	forecastDays   = 30
	predictHistory = 400 // calendar days fetched to cover the indicator warm-up
)

// PriceFetcher returns normalized daily history for [start, end).
type PriceFetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}

// Handler serves the prediction and history endpoints.
type Handler struct {
	fetcher       PriceFetcher
	model         *ModelHandle // nil when no artifact is loaded
	logger        ports.Logger
	defaultPeriod string
	now           func() time.Time
}

// HandlerConfig holds the handler dependencies.
type HandlerConfig struct {
	Fetcher       PriceFetcher
	Model         *ModelHandle
	Logger        ports.Logger
	DefaultPeriod string
	Now           func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		fetcher:       cfg.Fetcher,
		model:         cfg.Model,
		logger:        cfg.Logger,
		defaultPeriod: cfg.DefaultPeriod,
		now:           cfg.Now,
	}
	if h.defaultPeriod == "" {
		h.defaultPeriod = "1y"
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

type predictRequest struct {
	StockSymbol string `json:"stockSymbol"`
}

type historyRequest struct {
	StockSymbol string `json:"stockSymbol"`
	Period      string `json:"period"`
}

// HistoryPoint is one row of the historical data response.
type HistoryPoint struct {
	Date  string  `json:"Date"`
	Close float64 `json:"Close"`
}

// Index serves the chart page.
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// Health reports liveness and whether a model is loaded.
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":      "healthy",
		"service":     "stock-predictor",
		"modelLoaded": h.model != nil,
	}
	if h.model != nil {
		resp["modelSymbol"] = h.model.Symbol()
		resp["trainedAt"] = h.model.TrainedAt().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// Predict returns the 30-day placeholder curve and, when a model is loaded,
// the model's next-day close for the requested symbol.
func (h *Handler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	symbol := normalizeSymbol(req.StockSymbol)

	today := h.now()
	dates := make([]string, forecastDays)
	prices := make([]float64, forecastDays)
	for i := 0; i < forecastDays; i++ {
		dates[i] = today.AddDate(0, 0, i).Format("2006-01-02")
		prices[i] = placeholderPrice(i)
	}
	resp := gin.H{"dates": dates, "prices": prices}

	if h.model != nil {
		ctx := c.Request.Context()
		end := today.AddDate(0, 0, 1)
		series, err := h.fetcher.Fetch(ctx, symbol, end.AddDate(0, 0, -predictHistory), end)
		if err == nil {
			var p Prediction
			p, err = h.model.PredictNext(series)
			if err == nil {
				resp["nextClose"] = p.NextClose
				resp["lastClose"] = p.LastClose
				resp["asOf"] = p.AsOf.Format("2006-01-02")
			}
		}
		if err != nil {
			h.logger.Warn(ctx, "Model prediction unavailable", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		}
	}

	c.JSON(http.StatusOK, resp)
}

// HistoricalData returns daily closes for the requested period.
func (h *Handler) HistoricalData(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	symbol := normalizeSymbol(req.StockSymbol)
	period := req.Period
	if period == "" {
		period = h.defaultPeriod
	}

	ctx := c.Request.Context()
	now := h.now()
	start, err := ParsePeriod(period, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.fetcher.Fetch(ctx, symbol, start, now.AddDate(0, 0, 1))
	if err != nil {
		h.logger.Error(ctx, err, "Error fetching historical data", map[string]interface{}{"symbol": symbol, "period": period})
		c.JSON(http.StatusNotFound, gin.H{"error": "Could not fetch historical data"})
		return
	}

	points := make([]HistoryPoint, 0, series.Len())
	for _, b := range series.Bars {
		if math.IsNaN(b.Close) {
			continue
		}
		points = append(points, HistoryPoint{Date: b.Date.Format("2006-01-02"), Close: b.Close})
	}
	if len(points) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Could not fetch historical data"})
		return
	}
	c.JSON(http.StatusOK, points)
}

func placeholderPrice(i int) float64 {
	return 100 + float64(i)*0.5 + float64(i%5)*2 - float64(i%3)
}

func normalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultSymbol
	}
	return s
}
