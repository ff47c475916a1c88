package storage

import (
	"context"
	"time"

	"gold-trading-lab/internal/domain"
)

// TradeStore provides access to the closed-trade history. The history is
// append-only: records are inserted exactly once when a trade closes and
// are never edited or deleted. Performance windows are always recomputed
// from this record, never persisted alongside it.
type TradeStore interface {
	// Insert adds a closed trade. Returns ErrDuplicateKey if the trade ID
	// exists, ErrInvalidInput for nil/open/unidentified trades.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByCloseTimeRange retrieves trades whose close time falls in the
	// half-open interval [start, end), ordered by close time ASC, ID ASC.
	GetByCloseTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Trade, error)

	// GetAll retrieves the full history ordered by close time ASC, ID ASC.
	GetAll(ctx context.Context) ([]*domain.Trade, error)
}

// BarStore provides access to historical OHLC series used by the backtester.
type BarStore interface {
	// InsertBulk adds bars for an instrument/timeframe. Fails the entire
	// batch with ErrDuplicateKey on any duplicate timestamp.
	InsertBulk(ctx context.Context, instrument string, tf domain.Timeframe, bars []domain.Bar) error

	// GetRange retrieves bars within [start, end] (inclusive), ordered by
	// timestamp ASC.
	GetRange(ctx context.Context, instrument string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error)
}
