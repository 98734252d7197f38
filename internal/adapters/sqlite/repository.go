package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"stockPredictor/internal/domain"
	"stockPredictor/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const dateLayout = "2006-01-02"

// Repository implements ports.PriceRepository and ports.PriceProvider using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/prices.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS price_bars (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL, -- YYYY-MM-DD
		open REAL NULL,
		high REAL NULL,
		low REAL NULL,
		close REAL NULL,
		adj_close REAL NULL,
		volume REAL NULL,
		PRIMARY KEY (symbol, date)
	);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Name implements ports.PriceProvider.
func (r *Repository) Name() string { return "sqlite" }

// SaveBars upserts bars for symbol in one transaction and returns the number written.
func (r *Repository) SaveBars(ctx context.Context, symbol string, bars []domain.PriceBar) (int64, error) {
	const query = `
	INSERT INTO price_bars (symbol, date, open, high, low, close, adj_close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol, date) DO UPDATE SET
		open = excluded.open, high = excluded.high, low = excluded.low, close = excluded.close,
		adj_close = excluded.adj_close, volume = excluded.volume`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare price bar insert: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	var written int64
	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, b.Date.UTC().Format(dateLayout),
			nullable(b.Open), nullable(b.High), nullable(b.Low), nullable(b.Close),
			nullable(b.AdjClose), nullable(b.Volume))
		if err != nil {
			return 0, fmt.Errorf("failed to insert price bar %s %s: %w: %w",
				symbol, b.Date.Format(dateLayout), ports.ErrUpdateFailed, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit price bars: %w: %w", ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Price bars saved", map[string]interface{}{"symbol": symbol, "count": written})
	return written, nil
}

// FindBars returns the stored bars for symbol with start <= date < end, oldest first.
func (r *Repository) FindBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	const query = `
	SELECT date, open, high, low, close, adj_close, volume
	FROM price_bars
	WHERE symbol = ? AND date >= ? AND date < ?
	ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol,
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars for symbol %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	bars := make([]domain.PriceBar, 0)
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price bar during FindBars: %w: %w", ports.ErrQueryFailed, err)
		}
		bars = append(bars, bar)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price bar rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return bars, nil
}

// CountBySymbol returns the number of stored bars for symbol.
func (r *Repository) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	const query = `SELECT COUNT(*) FROM price_bars WHERE symbol = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count price bars for symbol %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	return count, nil
}

// FetchFrame serves stored bars as a flat frame so that a run can train
// offline on previously downloaded history.
func (r *Repository) FetchFrame(ctx context.Context, symbol string, start, end time.Time) (*domain.RawFrame, error) {
	bars, err := r.FindBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no stored bars for %s: %w", symbol, ports.ErrNotFound)
	}

	dates := make([]time.Time, len(bars))
	cols := map[string][]float64{}
	fields := []string{"Open", "High", "Low", "Close", "Adj Close", "Volume"}
	for _, f := range fields {
		cols[f] = make([]float64, len(bars))
	}
	for i, b := range bars {
		dates[i] = b.Date
		cols["Open"][i] = b.Open
		cols["High"][i] = b.High
		cols["Low"][i] = b.Low
		cols["Close"][i] = b.Close
		cols["Adj Close"][i] = b.AdjClose
		cols["Volume"][i] = b.Volume
	}

	frame := domain.NewRawFrame(dates)
	for _, f := range fields {
		if allNaN(cols[f]) {
			continue
		}
		frame.Set(f, "", cols[f])
	}
	return frame, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBar scans a row into a domain.PriceBar; NULL columns become NaN.
func scanBar(s scanner) (domain.PriceBar, error) {
	var date string
	var open, high, low, cls, adj, vol sql.NullFloat64
	if err := s.Scan(&date, &open, &high, &low, &cls, &adj, &vol); err != nil {
		return domain.PriceBar{}, err
	}
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	return domain.PriceBar{
		Date:     d,
		Open:     fromNull(open),
		High:     fromNull(high),
		Low:      fromNull(low),
		Close:    fromNull(cls),
		AdjClose: fromNull(adj),
		Volume:   fromNull(vol),
	}, nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
