package marketdata

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"
)

// Normalize converts a provider frame into a date-ordered PriceSeries.
//
// A two-level (field, ticker) layout is collapsed to the requested symbol.
// When no "close" column exists the adjusted close is used in its place and a
// warning is logged; when neither exists ports.ErrMissingRequiredColumn is
// returned. Duplicate dates keep their first occurrence.
func Normalize(ctx context.Context, frame *domain.RawFrame, symbol string, logger ports.Logger) (domain.PriceSeries, error) {
	series := domain.PriceSeries{Symbol: symbol}
	if frame.Len() == 0 {
		return series, fmt.Errorf("no rows returned for %q: %w", symbol, ports.ErrNotFound)
	}

	columns, err := collapse(frame, symbol)
	if err != nil {
		return series, err
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	series.Columns = names
	logger.Info(ctx, "Columns in the downloaded data", map[string]interface{}{
		"symbol":  symbol,
		"columns": strings.Join(names, ","),
		"rows":    frame.Len(),
	})

	closeCol, ok := columns[FieldClose]
	if !ok {
		adj, hasAdj := columns[FieldAdjClose]
		if !hasAdj {
			return series, fmt.Errorf("neither %q nor %q present for %q (columns: %s): %w",
				FieldClose, FieldAdjClose, symbol, strings.Join(names, ","), ports.ErrMissingRequiredColumn)
		}
		logger.Warn(ctx, "Close column missing, using adjusted close instead", map[string]interface{}{
			"symbol": symbol,
		})
		closeCol = adj
	}

	pick := func(field string, i int) float64 {
		col, ok := columns[field]
		if !ok {
			return math.NaN()
		}
		return col[i]
	}

	order := make([]int, frame.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return frame.Dates[order[a]].Before(frame.Dates[order[b]])
	})

	bars := make([]domain.PriceBar, 0, len(order))
	duplicates := 0
	for _, i := range order {
		date := Day(frame.Dates[i])
		if n := len(bars); n > 0 && !date.After(bars[n-1].Date) {
			duplicates++
			continue
		}
		bars = append(bars, domain.PriceBar{
			Date:     date,
			Open:     pick(FieldOpen, i),
			High:     pick(FieldHigh, i),
			Low:      pick(FieldLow, i),
			Close:    closeCol[i],
			Volume:   pick(FieldVolume, i),
			AdjClose: pick(FieldAdjClose, i),
		})
	}
	if duplicates > 0 {
		logger.Warn(ctx, "Dropped duplicate dates", map[string]interface{}{
			"symbol":     symbol,
			"duplicates": duplicates,
		})
	}
	series.Bars = bars
	return series, nil
}

// collapse flattens the frame columns to canonical field names, selecting the
// ticker level that matches symbol when the layout has one.
func collapse(frame *domain.RawFrame, symbol string) (map[string][]float64, error) {
	tickers := make(map[string]struct{})
	for key, values := range frame.Columns {
		if len(values) != len(frame.Dates) {
			return nil, fmt.Errorf("column %s/%s has %d values for %d dates: %w",
				key.Field, key.Ticker, len(values), len(frame.Dates), ports.ErrMalformedFeatureInput)
		}
		tickers[key.Ticker] = struct{}{}
	}

	want := ""
	if len(tickers) > 1 {
		for t := range tickers {
			if strings.EqualFold(t, symbol) {
				want = t
				break
			}
		}
		if want == "" {
			return nil, fmt.Errorf("frame holds %d tickers and none matches %q: %w",
				len(tickers), symbol, ports.ErrMalformedFeatureInput)
		}
	}

	out := make(map[string][]float64, len(frame.Columns))
	for key, values := range frame.Columns {
		if len(tickers) > 1 && key.Ticker != want {
			continue
		}
		out[CanonicalField(key.Field)] = values
	}
	return out, nil
}
