package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stockPredictor/internal/domain"
)

const csvDateLayout = "2006-01-02"

// WritePricesToCSV writes a series as Date,Open,High,Low,Close,Adj Close,Volume.
// Missing values are written as empty cells.
func WritePricesToCSV(series domain.PriceSeries, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	writer.Write([]string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"})

	for _, b := range series.Bars {
		writer.Write([]string{
			b.Date.Format(csvDateLayout),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.AdjClose),
			formatFloat(b.Volume),
		})
	}
	writer.Flush()
	return writer.Error()
}

// ReadFrameFromCSV parses a price CSV into a raw frame. Two layouts are
// accepted: a flat header starting with Date, and the three-row header of a
// yfinance download (Price/Ticker/Date) which yields (field, ticker) columns.
func ReadFrameFromCSV(r io.Reader) (*domain.RawFrame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}

	header := records[0]
	fields := header[1:]
	tickers := make([]string, len(fields))
	body := records[1:]

	if strings.EqualFold(strings.TrimSpace(header[0]), "Price") {
		if len(records) < 3 || !strings.EqualFold(strings.TrimSpace(records[1][0]), "Ticker") {
			return nil, fmt.Errorf("multi-level CSV header must have a Ticker row")
		}
		for i := range fields {
			if i+1 < len(records[1]) {
				tickers[i] = strings.TrimSpace(records[1][i+1])
			}
		}
		body = records[2:]
		if len(body) > 0 && strings.EqualFold(strings.TrimSpace(body[0][0]), "Date") {
			body = body[1:]
		}
	} else if !strings.EqualFold(strings.TrimSpace(header[0]), "Date") {
		return nil, fmt.Errorf("first CSV column must be Date, got %q", header[0])
	}

	dates := make([]time.Time, 0, len(body))
	values := make([][]float64, len(fields))
	for i := range values {
		values[i] = make([]float64, 0, len(body))
	}
	for line, rec := range body {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		d, err := parseCSVDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+1, err)
		}
		dates = append(dates, d)
		for i := range fields {
			cell := ""
			if i+1 < len(rec) {
				cell = rec[i+1]
			}
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line+1, fields[i], err)
			}
			values[i] = append(values[i], v)
		}
	}

	frame := domain.NewRawFrame(dates)
	for i, f := range fields {
		frame.Set(strings.TrimSpace(f), tickers[i], values[i])
	}
	return frame, nil
}

// ReadFrameFromCSVFile opens filename and parses it with ReadFrameFromCSV.
func ReadFrameFromCSVFile(filename string) (*domain.RawFrame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadFrameFromCSV(file)
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// yfinance writes "2024-01-02 00:00:00+00:00" for tz-aware indexes.
	if len(s) > len(csvDateLayout) {
		s = s[:len(csvDateLayout)]
	}
	return time.ParseInLocation(csvDateLayout, s, time.UTC)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
