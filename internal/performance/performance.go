// Package performance computes rolling statistics over closed trades.
// Windows are always recomputed from the append-only trade history,
// never persisted, so the history stays the single source of truth.
package performance

import (
	"math"
	"sort"
	"time"

	"gold-trading-lab/internal/domain"
)

// Summarize computes the PerformanceWindow for trades closed inside the
// half-open interval [periodStart, periodEnd). Trades outside the window
// and trades that are not closed are ignored.
//
// Order-dependent metrics (equity curve, drawdown, consecutive runs) use
// close-time ASC order with ties broken by trade ID, so two calls over
// the same history produce identical windows.
func Summarize(trades []*domain.Trade, periodStart, periodEnd time.Time) domain.PerformanceWindow {
	window := domain.PerformanceWindow{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	inWindow := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t == nil || t.Status != domain.TradeStatusClosed || t.CloseTime == nil || t.PnL == nil {
			continue
		}
		ct := *t.CloseTime
		if ct.Before(periodStart) || !ct.Before(periodEnd) {
			continue
		}
		inWindow = append(inWindow, t)
	}

	if len(inWindow) == 0 {
		return window
	}

	sort.Slice(inWindow, func(i, j int) bool {
		ti, tj := *inWindow[i].CloseTime, *inWindow[j].CloseTime
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return inWindow[i].ID < inWindow[j].ID
	})

	var (
		grossProfit, grossLoss float64
		winStreak, lossStreak  int
		equity                 float64
		maxDrawdown            float64
	)
	// The running peak is taken over the equity curve itself: the first
	// equity point seeds it, so a curve that never exceeds its first
	// point has zero drawdown.
	peak := math.Inf(-1)

	window.TotalTrades = len(inWindow)
	window.EquityCurve = make([]float64, 0, len(inWindow))

	for _, t := range inWindow {
		pnl := *t.PnL
		window.TotalPnL += pnl

		switch t.Outcome {
		case domain.OutcomeWin:
			window.Wins++
			grossProfit += pnl
			winStreak++
			lossStreak = 0
			if pnl > window.LargestWin {
				window.LargestWin = pnl
			}
		case domain.OutcomeLoss:
			window.Losses++
			grossLoss += pnl
			lossStreak++
			winStreak = 0
			if pnl < window.LargestLoss {
				window.LargestLoss = pnl
			}
		default:
			window.Breakevens++
			winStreak = 0
			lossStreak = 0
		}

		if winStreak > window.MaxConsecutiveWins {
			window.MaxConsecutiveWins = winStreak
		}
		if lossStreak > window.MaxConsecutiveLosses {
			window.MaxConsecutiveLosses = lossStreak
		}

		equity += pnl
		window.EquityCurve = append(window.EquityCurve, equity)
		if equity > peak {
			peak = equity
		}
		if dd := equity - peak; dd < maxDrawdown {
			maxDrawdown = dd
		}
	}

	window.Winrate = float64(window.Wins) / float64(window.TotalTrades)
	window.MaxDrawdown = maxDrawdown

	if window.Wins > 0 {
		window.AvgWin = grossProfit / float64(window.Wins)
	}
	if window.Losses > 0 {
		window.AvgLoss = grossLoss / float64(window.Losses)
	}

	switch {
	case grossLoss == 0 && grossProfit > 0:
		window.ProfitFactor = math.Inf(1)
	case grossLoss != 0:
		window.ProfitFactor = grossProfit / math.Abs(grossLoss)
	}

	return window
}

// PeriodStart truncates ts to the start of its period in the UTC calendar:
// midnight for daily, Monday midnight for weekly, first of the month for
// monthly.
func PeriodStart(ts time.Time, period domain.Period) time.Time {
	ts = ts.UTC()
	switch period {
	case domain.PeriodWeekly:
		day := ts.Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, time.UTC)
	case domain.PeriodMonthly:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// PeriodEnd returns the exclusive end of the period starting at start.
func PeriodEnd(start time.Time, period domain.Period) time.Time {
	switch period {
	case domain.PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case domain.PeriodMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Windows splits the closed trades into consecutive period windows by
// close time and summarizes each. Empty periods between trades are
// skipped. Each trade lands in exactly one window.
func Windows(trades []*domain.Trade, period domain.Period) []domain.PerformanceWindow {
	starts := map[time.Time]struct{}{}
	for _, t := range trades {
		if t == nil || t.Status != domain.TradeStatusClosed || t.CloseTime == nil {
			continue
		}
		starts[PeriodStart(*t.CloseTime, period)] = struct{}{}
	}

	ordered := make([]time.Time, 0, len(starts))
	for s := range starts {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	windows := make([]domain.PerformanceWindow, 0, len(ordered))
	for _, start := range ordered {
		windows = append(windows, Summarize(trades, start, PeriodEnd(start, period)))
	}
	return windows
}
