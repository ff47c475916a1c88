package postgres

import (
	"context"
	"fmt"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage"
)

// TradeStore implements storage.TradeStore backed by Postgres.
//
// Only closed trades are accepted; the table is append-only and rows
// are never updated or deleted.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a Postgres-backed trade store.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeSQL = `
INSERT INTO trades (
	trade_id, instrument, direction, status, outcome, close_reason,
	open_time, close_time, entry_price, exit_price,
	stop_loss, take_profit, position_size, pnl
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

// Insert persists a closed trade. Returns storage.ErrDuplicateKey if a
// trade with the same ID already exists, storage.ErrInvalidInput if the
// trade is nil or not fully closed.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return fmt.Errorf("%w: nil trade", storage.ErrInvalidInput)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: empty trade ID", storage.ErrInvalidInput)
	}
	if t.Status != domain.TradeStatusClosed || t.CloseTime == nil {
		return fmt.Errorf("%w: trade %s is not closed", storage.ErrInvalidInput, t.ID)
	}
	if t.ExitPrice == nil || t.PnL == nil {
		return fmt.Errorf("%w: trade %s has no exit price or PnL", storage.ErrInvalidInput, t.ID)
	}

	_, err := s.pool.Exec(ctx, insertTradeSQL,
		t.ID,
		t.Instrument,
		string(t.Direction),
		string(t.Status),
		string(t.Outcome),
		t.CloseReason,
		t.OpenTime,
		*t.CloseTime,
		t.EntryPrice,
		*t.ExitPrice,
		t.StopLoss,
		t.TakeProfit,
		t.Size,
		*t.PnL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: trade %s", storage.ErrDuplicateKey, t.ID)
		}
		return fmt.Errorf("insert trade %s: %w", t.ID, err)
	}

	return nil
}

const selectTradeSQL = `
SELECT trade_id, instrument, direction, status, outcome, close_reason,
	open_time, close_time, entry_price, exit_price,
	stop_loss, take_profit, position_size, pnl
FROM trades
`

// GetByID retrieves a trade by its ID. Returns storage.ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	row := s.pool.QueryRow(ctx, selectTradeSQL+"WHERE trade_id = $1", tradeID)

	trade, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: trade %s", storage.ErrNotFound, tradeID)
		}
		return nil, fmt.Errorf("get trade %s: %w", tradeID, err)
	}

	return trade, nil
}

// GetByCloseTimeRange retrieves trades closed in [start, end), ordered by
// close time ASC with ties broken by trade ID.
func (s *TradeStore) GetByCloseTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx,
		selectTradeSQL+"WHERE close_time >= $1 AND close_time < $2 ORDER BY close_time ASC, trade_id ASC",
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query trades by close time: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetAll retrieves all trades ordered by close time ASC, trade ID ASC.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx, selectTradeSQL+"ORDER BY close_time ASC, trade_id ASC")
	if err != nil {
		return nil, fmt.Errorf("query all trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (*domain.Trade, error) {
	var (
		t           domain.Trade
		direction string
		status    string
		outcome   string
		closeTime time.Time
		exitPrice float64
		pnl       float64
	)

	err := row.Scan(
		&t.ID,
		&t.Instrument,
		&direction,
		&status,
		&outcome,
		&t.CloseReason,
		&t.OpenTime,
		&closeTime,
		&t.EntryPrice,
		&exitPrice,
		&t.StopLoss,
		&t.TakeProfit,
		&t.Size,
		&pnl,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = domain.Direction(direction)
	t.Status = domain.TradeStatus(status)
	t.Outcome = domain.TradeOutcome(outcome)
	t.OpenTime = t.OpenTime.UTC()
	ct := closeTime.UTC()
	t.CloseTime = &ct
	t.ExitPrice = &exitPrice
	t.PnL = &pnl

	return &t, nil
}

type rowsIterator interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}

func collectTrades(rows rowsIterator) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
