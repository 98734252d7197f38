package evaluation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"stockPredictor/internal/ports"
)

// RenderChart draws actual and predicted closes over the holdout dates as a PNG.
func RenderChart(w io.Writer, title string, dates []time.Time, actual, predicted []float64) error {
	if len(dates) < 2 {
		return fmt.Errorf("chart needs at least 2 points, got %d: %w", len(dates), ports.ErrInsufficientData)
	}
	if len(actual) != len(dates) || len(predicted) != len(dates) {
		return fmt.Errorf("chart series lengths differ (%d dates, %d actual, %d predicted): %w",
			len(dates), len(actual), len(predicted), ports.ErrInvalidRequest)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 600,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name: "Close",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Actual",
				XValues: dates,
				YValues: actual,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Predicted",
				XValues: dates,
				YValues: predicted,
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 3},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// SaveChart renders the chart to path, creating parent directories.
func SaveChart(path, title string, dates []time.Time, actual, predicted []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if err := RenderChart(f, title, dates, actual, predicted); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
