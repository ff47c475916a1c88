// Package reporting renders trade history and performance windows into
// human-readable reports. Reports are always recomputed from the durable
// trade record, never persisted.
package reporting

import (
	"context"
	"fmt"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/performance"
	"gold-trading-lab/internal/storage"
)

// Report is one rendered view over the closed-trade history.
type Report struct {
	GeneratedAt time.Time
	Period      domain.Period

	TotalTrades int

	// Overall covers the whole trade history.
	Overall domain.PerformanceWindow
	// Windows are the per-period breakdowns in chronological order.
	Windows []domain.PerformanceWindow
}

// Generator produces reports from the stored trade history.
type Generator struct {
	tradeStore storage.TradeStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for the given period granularity.
func (g *Generator) Generate(ctx context.Context, period domain.Period) (*Report, error) {
	trades, err := g.tradeStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trade history: %w", err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		Period:      period,
		TotalTrades: len(trades),
		Windows:     performance.Windows(trades, period),
	}
	report.Overall = overallWindow(trades)

	return report, nil
}

// overallWindow summarizes the full history in one window.
func overallWindow(trades []*domain.Trade) domain.PerformanceWindow {
	var start, end time.Time
	for _, t := range trades {
		if t == nil || t.CloseTime == nil {
			continue
		}
		if start.IsZero() || t.CloseTime.Before(start) {
			start = *t.CloseTime
		}
		if end.IsZero() || t.CloseTime.After(end) {
			end = *t.CloseTime
		}
	}
	if start.IsZero() {
		return domain.PerformanceWindow{}
	}
	return performance.Summarize(trades, start, end.Add(time.Nanosecond))
}
