package strategy

import (
	"context"
	"fmt"
	"math"

	"gold-trading-lab/internal/domain"
)

// MACrossoverStrategy signals on the crossing of a short SMA over a long SMA
// between the previous and the current bar.
type MACrossoverStrategy struct {
	ShortPeriod int
	LongPeriod  int
}

// NewMACrossoverStrategy creates a new MACrossoverStrategy.
func NewMACrossoverStrategy(shortPeriod, longPeriod int) *MACrossoverStrategy {
	return &MACrossoverStrategy{
		ShortPeriod: shortPeriod,
		LongPeriod:  longPeriod,
	}
}

// ID returns the strategy identifier including parameters.
func (s *MACrossoverStrategy) ID() string {
	return fmt.Sprintf("MA_CROSSOVER_%d_%d", s.ShortPeriod, s.LongPeriod)
}

// Evaluate emits BUY when the short SMA crosses above the long SMA on the
// last bar, SELL on the opposite crossing, HOLD otherwise. Confidence is
// the normalized gap between the two averages after the cross.
func (s *MACrossoverStrategy) Evaluate(_ context.Context, w *Window) (domain.Signal, error) {
	// One extra bar for the pre-cross state.
	if w.Len() < s.LongPeriod+1 {
		return hold(s.ID(), w), nil
	}

	closes := w.Closes()
	prev := closes[:len(closes)-1]

	prevShort := sma(prev, s.ShortPeriod)
	prevLong := sma(prev, s.LongPeriod)
	curShort := sma(closes, s.ShortPeriod)
	curLong := sma(closes, s.LongPeriod)

	confidence := clamp01(math.Abs(curShort-curLong) / curLong * 100)

	switch {
	case prevShort <= prevLong && curShort > curLong:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case prevShort >= prevLong && curShort < curLong:
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

// Ensure MACrossoverStrategy implements Strategy
var _ Strategy = (*MACrossoverStrategy)(nil)
