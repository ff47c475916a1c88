package strategy

import (
	"context"
	"fmt"
	"math"

	"gold-trading-lab/internal/domain"
)

// RSIStrategy signals when the RSI exits an extreme zone: crossing back up
// through the oversold level is BUY, crossing back down through the
// overbought level is SELL.
type RSIStrategy struct {
	Period     int
	Overbought float64
	Oversold   float64
}

// NewRSIStrategy creates a new RSIStrategy.
func NewRSIStrategy(period int, overbought, oversold float64) *RSIStrategy {
	return &RSIStrategy{
		Period:     period,
		Overbought: overbought,
		Oversold:   oversold,
	}
}

// ID returns the strategy identifier including parameters.
func (s *RSIStrategy) ID() string {
	return fmt.Sprintf("RSI_%d_%g_%g", s.Period, s.Overbought, s.Oversold)
}

// Evaluate compares the previous and current RSI against the extreme
// levels. Confidence is the crossing magnitude, one RSI point of movement
// per 0.1.
func (s *RSIStrategy) Evaluate(_ context.Context, w *Window) (domain.Signal, error) {
	if w.Len() < s.Period+2 {
		return hold(s.ID(), w), nil
	}

	closes := w.Closes()
	prevRSI := rsi(closes[:len(closes)-1], s.Period)
	curRSI := rsi(closes, s.Period)

	confidence := clamp01(math.Abs(curRSI-prevRSI) / 10)

	switch {
	case prevRSI < s.Oversold && curRSI >= s.Oversold:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case prevRSI > s.Overbought && curRSI <= s.Overbought:
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

// Ensure RSIStrategy implements Strategy
var _ Strategy = (*RSIStrategy)(nil)
