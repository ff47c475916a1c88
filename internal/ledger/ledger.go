// Package ledger owns the trade lifecycle: (none) -> OPEN -> CLOSED.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage"
)

// Ledger errors
var (
	ErrLedgerConflict = errors.New("open trade already exists for instrument")
	ErrTradeNotOpen   = errors.New("trade is not open")
)

// IDGenerator mints trade IDs. Live ledgers use random UUIDs; backtests
// inject a deterministic generator so reruns produce identical IDs.
type IDGenerator func(instrument string, openTime time.Time) string

// Ledger tracks at most one OPEN trade per instrument and appends every
// closed trade to the store. The store write is the commit point: a trade
// stays OPEN in memory if persisting its closed record fails, and no
// downstream reporting error can roll a committed close back.
type Ledger struct {
	mu    sync.Mutex
	open  map[string]*domain.Trade // keyed by instrument
	store storage.TradeStore
	newID IDGenerator

	logger *log.Logger
}

// New creates a Ledger persisting closed trades to store.
// A nil logger disables conflict logging.
func New(store storage.TradeStore, newID IDGenerator, logger *log.Logger) *Ledger {
	return &Ledger{
		open:   make(map[string]*domain.Trade),
		store:  store,
		newID:  newID,
		logger: logger,
	}
}

// Open opens a trade for the decision under the risk plan. Returns
// ErrLedgerConflict (a logged no-op, nil trade) when an OPEN trade
// already exists for the instrument.
func (l *Ledger) Open(_ context.Context, instrument string, decision domain.Decision, plan domain.RiskPlan) (*domain.Trade, error) {
	if !decision.Actionable() {
		return nil, fmt.Errorf("cannot open trade from %s decision", decision.Direction)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.open[instrument]; ok {
		if l.logger != nil {
			l.logger.Printf("ledger conflict: %s already has open trade %s", instrument, existing.ID)
		}
		return nil, fmt.Errorf("%w: %s", ErrLedgerConflict, instrument)
	}

	trade := &domain.Trade{
		ID:         l.newID(instrument, decision.Timestamp),
		Instrument: instrument,
		OpenTime:   decision.Timestamp,
		EntryPrice: plan.EntryPrice,
		Direction:  decision.Direction,
		Size:       plan.PositionSize,
		StopLoss:   plan.StopLoss,
		TakeProfit: plan.TakeProfit,
		Status:     domain.TradeStatusOpen,
		Outcome:    domain.OutcomePending,
	}

	l.open[instrument] = trade
	return copyTrade(trade), nil
}

// MarkToMarket checks the instrument's OPEN trade against the bar. A bar
// that crosses the stop or the take-profit closes the trade at that
// boundary price, not at the bar close. When a bar crosses both, the stop
// wins (the conservative assumption). Returns the closed trade, or nil if
// nothing closed.
func (l *Ledger) MarkToMarket(ctx context.Context, instrument string, bar domain.Bar) (*domain.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.open[instrument]
	if !ok {
		return nil, nil
	}

	exitPrice, reason, crossed := boundaryCross(trade, bar)
	if !crossed {
		return nil, nil
	}

	return l.closeLocked(ctx, trade, exitPrice, bar.Timestamp, reason)
}

// Close is the explicit manual close path.
func (l *Ledger) Close(ctx context.Context, tradeID string, exitPrice float64, closeTime time.Time) (*domain.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, trade := range l.open {
		if trade.ID == tradeID {
			return l.closeLocked(ctx, trade, exitPrice, closeTime, domain.CloseReasonManual)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrTradeNotOpen, tradeID)
}

// OpenTrade returns a copy of the instrument's OPEN trade, or nil.
func (l *Ledger) OpenTrade(instrument string) *domain.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.open[instrument]
	if !ok {
		return nil
	}
	return copyTrade(trade)
}

// closeLocked transitions a trade to CLOSED and commits it to the store.
// Caller holds the mutex.
func (l *Ledger) closeLocked(ctx context.Context, trade *domain.Trade, exitPrice float64, closeTime time.Time, reason string) (*domain.Trade, error) {
	pnl := trade.RealizedPnL(exitPrice)

	closed := copyTrade(trade)
	closed.Status = domain.TradeStatusClosed
	closed.CloseTime = &closeTime
	closed.ExitPrice = &exitPrice
	closed.PnL = &pnl
	closed.Outcome = domain.ClassifyOutcome(pnl)
	closed.CloseReason = reason

	// The store insert is the commit. On failure the trade stays OPEN.
	if err := l.store.Insert(ctx, closed); err != nil {
		return nil, fmt.Errorf("commit closed trade %s: %w", trade.ID, err)
	}

	delete(l.open, trade.Instrument)
	return copyTrade(closed), nil
}

// boundaryCross reports whether the bar crossed the trade's stop or take
// profit, and the boundary price to close at.
func boundaryCross(trade *domain.Trade, bar domain.Bar) (float64, string, bool) {
	if trade.Direction == domain.DirectionBuy {
		if bar.Low <= trade.StopLoss {
			return trade.StopLoss, domain.CloseReasonStopLoss, true
		}
		if bar.High >= trade.TakeProfit {
			return trade.TakeProfit, domain.CloseReasonTakeProfit, true
		}
		return 0, "", false
	}

	if bar.High >= trade.StopLoss {
		return trade.StopLoss, domain.CloseReasonStopLoss, true
	}
	if bar.Low <= trade.TakeProfit {
		return trade.TakeProfit, domain.CloseReasonTakeProfit, true
	}
	return 0, "", false
}

func copyTrade(t *domain.Trade) *domain.Trade {
	c := *t
	if t.CloseTime != nil {
		ct := *t.CloseTime
		c.CloseTime = &ct
	}
	if t.ExitPrice != nil {
		ep := *t.ExitPrice
		c.ExitPrice = &ep
	}
	if t.PnL != nil {
		p := *t.PnL
		c.PnL = &p
	}
	return &c
}
