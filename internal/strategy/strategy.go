package strategy

import (
	"context"
	"time"

	"gold-trading-lab/internal/domain"
)

// Strategy produces one directional signal per evaluation.
type Strategy interface {
	// Evaluate runs the strategy over the window and returns a signal
	// stamped with the window's last bar time.
	Evaluate(ctx context.Context, w *Window) (domain.Signal, error)

	// ID returns strategy identifier (includes parameters).
	ID() string
}

// Window is a causal view over a bar series: it exposes only bars at or
// before the evaluation timestamp, so a strategy cannot read the future.
// The backtester constructs one per step from the prefix of its series.
type Window struct {
	bars []domain.Bar
}

// NewWindow wraps an ordered bar series. Returns domain series errors
// for empty or unordered input.
func NewWindow(bars []domain.Bar) (*Window, error) {
	if err := domain.ValidateSeries(bars); err != nil {
		return nil, err
	}
	return &Window{bars: bars}, nil
}

// Len returns the number of bars in the window.
func (w *Window) Len() int {
	return len(w.bars)
}

// Bar returns the bar at index i.
func (w *Window) Bar(i int) domain.Bar {
	return w.bars[i]
}

// Last returns the most recent bar.
func (w *Window) Last() domain.Bar {
	return w.bars[len(w.bars)-1]
}

// Time returns the evaluation timestamp (last bar time).
func (w *Window) Time() time.Time {
	return w.bars[len(w.bars)-1].Timestamp
}

// Closes returns a copy of the close price series.
func (w *Window) Closes() []float64 {
	closes := make([]float64, len(w.bars))
	for i, b := range w.bars {
		closes[i] = b.Close
	}
	return closes
}

// Highs returns a copy of the high price series.
func (w *Window) Highs() []float64 {
	highs := make([]float64, len(w.bars))
	for i, b := range w.bars {
		highs[i] = b.High
	}
	return highs
}

// Lows returns a copy of the low price series.
func (w *Window) Lows() []float64 {
	lows := make([]float64, len(w.bars))
	for i, b := range w.bars {
		lows[i] = b.Low
	}
	return lows
}

// clamp bounds v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// hold builds the abstention signal for a strategy at the window time.
func hold(id string, w *Window) domain.Signal {
	return domain.HoldSignal(id, w.Time())
}
