package ports

import (
	"context"
	"time"

	"stockPredictor/internal/domain"
)

// PriceRepository defines the interface for storing and retrieving daily price bars.
type PriceRepository interface {
	// SaveBars upserts the bars for a symbol and returns the number of rows written.
	SaveBars(ctx context.Context, symbol string, bars []domain.PriceBar) (int64, error)
	// FindBars retrieves bars for a symbol with start <= date < end, ordered by date ascending.
	FindBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error)
	// CountBySymbol counts the stored bars for a symbol.
	CountBySymbol(ctx context.Context, symbol string) (int, error)
}
