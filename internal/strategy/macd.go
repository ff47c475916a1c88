package strategy

import (
	"context"
	"fmt"
	"math"

	"gold-trading-lab/internal/domain"
)

// MACDStrategy signals on the MACD line crossing its signal line.
type MACDStrategy struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

// NewMACDStrategy creates a new MACDStrategy.
func NewMACDStrategy(fast, slow, signalPeriod int) *MACDStrategy {
	return &MACDStrategy{
		FastPeriod:   fast,
		SlowPeriod:   slow,
		SignalPeriod: signalPeriod,
	}
}

// ID returns the strategy identifier including parameters.
func (s *MACDStrategy) ID() string {
	return fmt.Sprintf("MACD_%d_%d_%d", s.FastPeriod, s.SlowPeriod, s.SignalPeriod)
}

// Evaluate emits BUY when the MACD line crosses above its signal line on
// the last bar, SELL on the opposite crossing. Confidence is the line gap
// normalized to 10 basis points of the close price.
func (s *MACDStrategy) Evaluate(_ context.Context, w *Window) (domain.Signal, error) {
	if w.Len() < s.SlowPeriod+s.SignalPeriod+1 {
		return hold(s.ID(), w), nil
	}

	closes := w.Closes()
	prevLine, prevSignal := macd(closes[:len(closes)-1], s.FastPeriod, s.SlowPeriod, s.SignalPeriod)
	curLine, curSignal := macd(closes, s.FastPeriod, s.SlowPeriod, s.SignalPeriod)

	curClose := closes[len(closes)-1]
	confidence := clamp01(math.Abs(curLine-curSignal) / (0.001 * curClose))

	switch {
	case prevLine <= prevSignal && curLine > curSignal:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case prevLine >= prevSignal && curLine < curSignal:
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

// Ensure MACDStrategy implements Strategy
var _ Strategy = (*MACDStrategy)(nil)
