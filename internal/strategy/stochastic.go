package strategy

import (
	"context"
	"fmt"
	"math"

	"gold-trading-lab/internal/domain"
)

// StochasticStrategy signals on %K/%D crossings inside the extreme zones:
// a bullish crossover while %D is oversold is BUY, a bearish crossover
// while %D is overbought is SELL.
type StochasticStrategy struct {
	KPeriod    int
	DPeriod    int
	Overbought float64
	Oversold   float64
}

// NewStochasticStrategy creates a new StochasticStrategy.
func NewStochasticStrategy(kPeriod, dPeriod int, overbought, oversold float64) *StochasticStrategy {
	return &StochasticStrategy{
		KPeriod:    kPeriod,
		DPeriod:    dPeriod,
		Overbought: overbought,
		Oversold:   oversold,
	}
}

// ID returns the strategy identifier including parameters.
func (s *StochasticStrategy) ID() string {
	return fmt.Sprintf("STOCHASTIC_%d_%d_%g_%g", s.KPeriod, s.DPeriod, s.Overbought, s.Oversold)
}

// Evaluate compares %K against %D on the previous and current bar.
// Confidence is the crossover gap, one stochastic point per 0.1.
func (s *StochasticStrategy) Evaluate(_ context.Context, w *Window) (domain.Signal, error) {
	if w.Len() < s.KPeriod+s.DPeriod+1 {
		return hold(s.ID(), w), nil
	}

	highs := w.Highs()
	lows := w.Lows()
	closes := w.Closes()
	n := len(closes)

	prevK, prevD := stochastic(highs[:n-1], lows[:n-1], closes[:n-1], s.KPeriod, s.DPeriod)
	curK, curD := stochastic(highs, lows, closes, s.KPeriod, s.DPeriod)

	confidence := clamp01(math.Abs(curK-curD) / 10)

	switch {
	case prevK <= prevD && curK > curD && curD < s.Oversold:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case prevK >= prevD && curK < curD && curD > s.Overbought:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionSell,
			Confidence: confidence,
		}, nil
	default:
		return hold(s.ID(), w), nil
	}
}

// Ensure StochasticStrategy implements Strategy
var _ Strategy = (*StochasticStrategy)(nil)
