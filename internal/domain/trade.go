package domain

import "time"

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

// Trade lifecycle: (none) -> OPEN -> CLOSED, exactly once.
const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// TradeOutcome classifies a closed trade by realized PnL.
type TradeOutcome string

// Outcome constants. A trade is PENDING until it closes.
const (
	OutcomeWin       TradeOutcome = "WIN"
	OutcomeLoss      TradeOutcome = "LOSS"
	OutcomeBreakeven TradeOutcome = "BREAKEVEN"
	OutcomePending   TradeOutcome = "PENDING"
)

// Close reason codes.
const (
	CloseReasonStopLoss   = "STOP_LOSS"
	CloseReasonTakeProfit = "TAKE_PROFIT"
	CloseReasonManual     = "MANUAL"
)

// Trade is one position from open to close. It is owned solely by the
// ledger; once CLOSED its fields are immutable. JSON tags define the
// durable append-only record format.
type Trade struct {
	ID         string    `json:"id"`
	Instrument string    `json:"instrument"`
	OpenTime   time.Time `json:"open_time"`
	EntryPrice float64   `json:"entry_price"`
	Direction  Direction `json:"direction"`
	Size       float64   `json:"size"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`

	Status      TradeStatus  `json:"status"`
	CloseTime   *time.Time   `json:"close_time,omitempty"`
	ExitPrice   *float64     `json:"exit_price,omitempty"`
	PnL         *float64     `json:"pnl,omitempty"`
	Outcome     TradeOutcome `json:"outcome"`
	CloseReason string       `json:"close_reason,omitempty"`
}

// RealizedPnL computes the profit for closing at exitPrice.
func (t *Trade) RealizedPnL(exitPrice float64) float64 {
	if t.Direction == DirectionSell {
		return (t.EntryPrice - exitPrice) * t.Size
	}
	return (exitPrice - t.EntryPrice) * t.Size
}

// ClassifyOutcome maps a realized pnl onto WIN/LOSS/BREAKEVEN.
func ClassifyOutcome(pnl float64) TradeOutcome {
	switch {
	case pnl > 0:
		return OutcomeWin
	case pnl < 0:
		return OutcomeLoss
	default:
		return OutcomeBreakeven
	}
}
