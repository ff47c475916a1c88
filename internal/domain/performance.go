package domain

import "time"

// Period is a reporting granularity. Period windows are half-open
// intervals [start, end); a trade belongs to exactly one window by its
// close time.
type Period string

// Supported reporting periods.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// PerformanceWindow holds rolling statistics over the closed trades whose
// close time falls inside [PeriodStart, PeriodEnd). It is derived on
// demand from the immutable trade history and never persisted.
//
// ProfitFactor is math.Inf(1) when there are winning trades and no losing
// trades. MaxDrawdown is <= 0 by construction.
type PerformanceWindow struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	TotalTrades int
	Wins        int
	Losses      int
	Breakevens  int

	Winrate      float64
	TotalPnL     float64
	ProfitFactor float64
	MaxDrawdown  float64

	AvgWin      float64
	AvgLoss     float64
	LargestWin  float64
	LargestLoss float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	// EquityCurve is cumulative realized PnL after each closed trade,
	// in close-time order.
	EquityCurve []float64
}
