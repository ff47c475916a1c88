package strategy

import (
	"context"
	"fmt"
	"math"

	"gold-trading-lab/internal/domain"
)

// BollingerStrategy signals on re-entry through a Bollinger band: a close
// back above the lower band after closing below it is BUY, a close back
// below the upper band after closing above it is SELL.
type BollingerStrategy struct {
	Window int
	NumStd float64
}

// NewBollingerStrategy creates a new BollingerStrategy.
func NewBollingerStrategy(window int, numStd float64) *BollingerStrategy {
	return &BollingerStrategy{
		Window: window,
		NumStd: numStd,
	}
}

// ID returns the strategy identifier including parameters.
func (s *BollingerStrategy) ID() string {
	return fmt.Sprintf("BOLLINGER_%d_%g", s.Window, s.NumStd)
}

// Evaluate checks the previous and current closes against the bands of
// their own windows. Confidence is the close's distance from the band
// midline normalized by the band half-width.
func (s *BollingerStrategy) Evaluate(_ context.Context, w *Window) (domain.Signal, error) {
	if w.Len() < s.Window+1 {
		return hold(s.ID(), w), nil
	}

	closes := w.Closes()
	prev := closes[:len(closes)-1]

	prevMid := sma(prev, s.Window)
	prevSD := stdDev(prev, s.Window)
	curMid := sma(closes, s.Window)
	curSD := stdDev(closes, s.Window)

	if prevSD == 0 || curSD == 0 {
		return hold(s.ID(), w), nil
	}

	prevClose := prev[len(prev)-1]
	curClose := closes[len(closes)-1]

	prevLower := prevMid - s.NumStd*prevSD
	prevUpper := prevMid + s.NumStd*prevSD
	curLower := curMid - s.NumStd*curSD
	curUpper := curMid + s.NumStd*curSD

	confidence := clamp01(math.Abs(curClose-curMid) / (s.NumStd * curSD))

	switch {
	case prevClose < prevLower && curClose >= curLower:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case prevClose > prevUpper && curClose <= curUpper:
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

// Ensure BollingerStrategy implements Strategy
var _ Strategy = (*BollingerStrategy)(nil)
