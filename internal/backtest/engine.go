package backtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"gold-trading-lab/internal/aggregate"
	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/ledger"
	"gold-trading-lab/internal/performance"
	"gold-trading-lab/internal/risk"
	"gold-trading-lab/internal/storage/memory"
	"gold-trading-lab/internal/strategy"
)

// Config describes one backtest run.
type Config struct {
	// RunID seeds deterministic trade IDs. Two runs with the same RunID
	// and inputs produce identical trade lists.
	RunID      string
	Instrument string

	Strategies []strategy.Strategy
	// Weights maps strategy ID to its vote weight. Every strategy in
	// Strategies must have an entry.
	Weights map[string]float64

	// Method and Threshold configure the signal combiner.
	Method    string
	Threshold float64

	Risk    risk.Config
	Account domain.AccountState

	// StopDistanceHint overrides the default percentage stop when > 0.
	StopDistanceHint float64
}

// Results holds the output of one backtest run.
type Results struct {
	RunID      string
	Instrument string

	Bars         int
	Decisions    int
	TradesOpened int

	// Trades are the closed trades in close-time order.
	Trades []*domain.Trade
	// Open is the residual open position at the end of the bar series,
	// nil if the run ended flat.
	Open *domain.Trade

	Window domain.PerformanceWindow
}

// Engine replays a stored bar series through the live decision pipeline:
// mark open positions to market, evaluate every strategy on the bar
// prefix, combine signals, size the decision and open through the ledger.
// Strategies only ever see bars up to the current index, so the simulation
// cannot look ahead.
type Engine struct {
	cfg      Config
	combiner *aggregate.Combiner
	sizer    *risk.Sizer
	book     *ledger.Ledger
	store    *memory.TradeStore
	logger   *log.Logger
}

// NewEngine validates the configuration and wires an isolated ledger and
// in-memory trade store for the run.
func NewEngine(cfg Config, logger *log.Logger) (*Engine, error) {
	if cfg.Instrument == "" {
		return nil, fmt.Errorf("backtest: instrument is required")
	}
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("backtest: at least one strategy is required")
	}

	combiner, err := aggregate.NewCombiner(cfg.Method, cfg.Threshold, logger)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	sizer, err := risk.NewSizer(cfg.Risk)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	store := memory.NewTradeStore()
	return &Engine{
		cfg:      cfg,
		combiner: combiner,
		sizer:    sizer,
		book:     ledger.New(store, ledger.DeterministicGenerator(cfg.RunID), logger),
		store:    store,
		logger:   logger,
	}, nil
}

// Run iterates bars in timestamp order and returns the accumulated trades
// and performance window. The bar series must be strictly ordered.
func (e *Engine) Run(ctx context.Context, bars []domain.Bar) (*Results, error) {
	if err := domain.ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	results := &Results{
		RunID:      e.cfg.RunID,
		Instrument: e.cfg.Instrument,
		Bars:       len(bars),
	}

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := e.book.MarkToMarket(ctx, e.cfg.Instrument, bar); err != nil {
			return nil, fmt.Errorf("backtest: mark to market at %s: %w", bar.Timestamp.Format(time.RFC3339), err)
		}

		window, err := strategy.NewWindow(bars[: i+1 : i+1])
		if err != nil {
			return nil, fmt.Errorf("backtest: %w", err)
		}

		signals := make([]domain.Signal, 0, len(e.cfg.Strategies))
		for _, s := range e.cfg.Strategies {
			sig, err := s.Evaluate(ctx, window)
			if err != nil {
				return nil, fmt.Errorf("backtest: strategy %s at %s: %w", s.ID(), bar.Timestamp.Format(time.RFC3339), err)
			}
			signals = append(signals, sig)
		}

		decision, err := e.combiner.Combine(bar.Timestamp, signals, e.cfg.Weights)
		if err != nil {
			return nil, fmt.Errorf("backtest: combine at %s: %w", bar.Timestamp.Format(time.RFC3339), err)
		}
		results.Decisions++

		if !decision.Actionable() || e.book.OpenTrade(e.cfg.Instrument) != nil {
			continue
		}

		plan, err := e.sizer.Size(decision, e.cfg.Account, bar.Close, e.cfg.StopDistanceHint)
		if err != nil {
			// Unsizeable decisions (e.g. the floored size is zero) skip
			// the bar rather than aborting the run.
			e.logger.Printf("skip unsizeable decision at %s: %v", bar.Timestamp.Format(time.RFC3339), err)
			continue
		}

		if _, err := e.book.Open(ctx, e.cfg.Instrument, decision, plan); err != nil {
			return nil, fmt.Errorf("backtest: open at %s: %w", bar.Timestamp.Format(time.RFC3339), err)
		}
		results.TradesOpened++
	}

	trades, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("backtest: collect trades: %w", err)
	}
	results.Trades = trades
	results.Open = e.book.OpenTrade(e.cfg.Instrument)

	start := bars[0].Timestamp
	end := bars[len(bars)-1].Timestamp.Add(time.Nanosecond)
	w := performance.Summarize(trades, start, end)
	results.Window = w

	return results, nil
}
