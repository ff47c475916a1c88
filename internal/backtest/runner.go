package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gold-trading-lab/internal/domain"
)

const defaultWorkers = 4

// Run pairs a backtest configuration with its bar series.
type Run struct {
	Config Config
	Bars   []domain.Bar
}

// Runner executes independent backtest runs across a bounded worker pool.
// Each run gets its own engine, ledger and trade store, so runs share no
// mutable state; bars are read-only and may be shared between runs.
type Runner struct {
	workers int
	logger  *log.Logger
}

// NewRunner creates a runner with up to workers concurrent runs.
func NewRunner(workers int, logger *log.Logger) *Runner {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Runner{workers: workers, logger: logger}
}

// RunAll executes every run and returns results in input order. A failed
// run leaves a nil entry at its index; the joined error reports all
// failures.
func (r *Runner) RunAll(ctx context.Context, runs []Run) ([]*Results, error) {
	results := make([]*Results, len(runs))
	errs := make([]error, len(runs))

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, run := range runs {
		wg.Add(1)
		go func(i int, run Run) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			engine, err := NewEngine(run.Config, r.logger)
			if err != nil {
				errs[i] = fmt.Errorf("run %s/%s: %w", run.Config.Instrument, run.Config.RunID, err)
				return
			}
			res, err := engine.Run(ctx, run.Bars)
			if err != nil {
				errs[i] = fmt.Errorf("run %s/%s: %w", run.Config.Instrument, run.Config.RunID, err)
				return
			}
			results[i] = res
		}(i, run)
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// Sweep expands one instrument's bar series into runs over multiple weight
// sets. Run IDs are derived from baseRunID and the weight-set index so the
// expansion is reproducible.
func Sweep(baseCfg Config, bars []domain.Bar, weightSets []map[string]float64) []Run {
	runs := make([]Run, 0, len(weightSets))
	for i, weights := range weightSets {
		cfg := baseCfg
		cfg.RunID = fmt.Sprintf("%s-w%d", baseCfg.RunID, i)
		cfg.Weights = weights
		runs = append(runs, Run{Config: cfg, Bars: bars})
	}
	return runs
}
