// Package engine runs the live evaluation cycle: fetch a market
// snapshot, evaluate strategies, aggregate signals, size the decision and
// update the ledger. One cycle runs to completion before the next is
// scheduled, so cycles never overlap.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gold-trading-lab/internal/aggregate"
	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/ledger"
	"gold-trading-lab/internal/marketdata"
	"gold-trading-lab/internal/notify"
	"gold-trading-lab/internal/observability"
	"gold-trading-lab/internal/reporting"
	"gold-trading-lab/internal/risk"
	"gold-trading-lab/internal/strategy"
)

// Config holds the static parameters of the live engine.
type Config struct {
	Instrument string
	Timeframe  domain.Timeframe
	Lookback   int

	// Weights maps strategy ID to vote weight.
	Weights map[string]float64

	// Account is the explicit account snapshot passed to the sizer on
	// every cycle.
	Account domain.AccountState

	// StopDistanceHint overrides the default percentage stop when > 0.
	StopDistanceHint float64

	// Interval between cycles for Run.
	Interval time.Duration
}

// Deps are the engine's collaborators.
type Deps struct {
	Provider   marketdata.Provider
	Strategies []strategy.Strategy
	Combiner   *aggregate.Combiner
	Sizer      *risk.Sizer
	Ledger     *ledger.Ledger
	Notifier   notify.Notifier
	Logger     *log.Logger
}

// CycleResult summarizes one completed evaluation cycle.
type CycleResult struct {
	Decision domain.Decision
	Opened   *domain.Trade
	Closed   *domain.Trade
	Bars     int
}

// Engine drives the live pipeline.
type Engine struct {
	cfg  Config
	deps Deps
}

// New creates a live engine.
func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.Instrument == "" {
		return nil, fmt.Errorf("engine: instrument is required")
	}
	if cfg.Lookback <= 0 {
		return nil, fmt.Errorf("engine: lookback %d must be > 0", cfg.Lookback)
	}
	if len(deps.Strategies) == 0 {
		return nil, fmt.Errorf("engine: at least one strategy is required")
	}
	return &Engine{cfg: cfg, deps: deps}, nil
}

// RunCycle executes one evaluation cycle. A market data outage aborts
// the cycle with no decision: trading on stale data is worse than not
// trading. Ledger commits always precede reporting.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	started := time.Now()

	bars, err := e.deps.Provider.GetPriceSeries(ctx, e.cfg.Instrument, e.cfg.Timeframe, e.cfg.Lookback)
	if err != nil {
		observability.RecordDataError("price")
		observability.RecordCycle("data_unavailable", time.Since(started).Seconds())
		if errors.Is(err, marketdata.ErrDataUnavailable) {
			return nil, fmt.Errorf("cycle aborted: %w", err)
		}
		return nil, fmt.Errorf("cycle aborted: fetch price series: %w", err)
	}

	result := &CycleResult{Bars: len(bars)}
	latest := bars[len(bars)-1]

	closed, err := e.deps.Ledger.MarkToMarket(ctx, e.cfg.Instrument, latest)
	if err != nil {
		observability.RecordCycle("ledger_error", time.Since(started).Seconds())
		return nil, fmt.Errorf("cycle aborted: mark to market: %w", err)
	}
	if closed != nil {
		result.Closed = closed
		pnl := 0.0
		if closed.PnL != nil {
			pnl = *closed.PnL
		}
		observability.RecordTradeClosed(string(closed.Outcome), pnl)
		// The close is already committed to the trade store; reporting
		// failures cannot roll it back.
		e.deps.Notifier.SendReport(notify.FormatTradeClosed(closed))
	}

	window, err := strategy.NewWindow(bars)
	if err != nil {
		observability.RecordCycle("bad_series", time.Since(started).Seconds())
		return nil, fmt.Errorf("cycle aborted: %w", err)
	}

	signals := make([]domain.Signal, 0, len(e.deps.Strategies))
	for _, s := range e.deps.Strategies {
		sig, err := s.Evaluate(ctx, window)
		if err != nil {
			observability.RecordCycle("strategy_error", time.Since(started).Seconds())
			return nil, fmt.Errorf("cycle aborted: strategy %s: %w", s.ID(), err)
		}
		signals = append(signals, sig)
	}

	decision, err := e.deps.Combiner.Combine(window.Time(), signals, e.cfg.Weights)
	if err != nil {
		observability.RecordCycle("combine_error", time.Since(started).Seconds())
		return nil, fmt.Errorf("cycle aborted: combine: %w", err)
	}
	result.Decision = decision
	observability.RecordDecision(string(decision.Direction))

	if decision.Actionable() && e.deps.Ledger.OpenTrade(e.cfg.Instrument) == nil {
		e.openPosition(ctx, decision, latest.Close, result)
	}

	observability.RecordCycle("ok", time.Since(started).Seconds())
	observability.DefaultMetrics.LastSuccessfulCycle.SetToCurrentTime()

	return result, nil
}

func (e *Engine) openPosition(ctx context.Context, decision domain.Decision, entryPrice float64, result *CycleResult) {
	plan, err := e.deps.Sizer.Size(decision, e.cfg.Account, entryPrice, e.cfg.StopDistanceHint)
	if err != nil {
		// A decision the account cannot support is reported, never
		// partially sized.
		e.deps.Logger.Printf("decision not sized: %v", err)
		e.deps.Notifier.SendReport(fmt.Sprintf("Decision %s %s rejected: %v", decision.Direction, e.cfg.Instrument, err))
		return
	}

	trade, err := e.deps.Ledger.Open(ctx, e.cfg.Instrument, decision, plan)
	if err != nil {
		if errors.Is(err, ledger.ErrLedgerConflict) {
			return
		}
		e.deps.Logger.Printf("open failed: %v", err)
		return
	}

	result.Opened = trade
	observability.RecordTradeOpened()
	e.deps.Notifier.SendReport(reporting.RenderRiskPlanText(e.cfg.Instrument, decision, plan))
}

// Run executes cycles on a fixed interval until the context is
// cancelled. The first cycle runs immediately. Cycle errors are logged;
// the loop keeps going so a transient outage does not stop trading.
func (e *Engine) Run(ctx context.Context) error {
	if e.cfg.Interval <= 0 {
		return fmt.Errorf("engine: interval %s must be > 0", e.cfg.Interval)
	}

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.deps.Logger.Printf("cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
