package domain

import (
	"fmt"
	"time"
)

// Direction is a directional trading opinion.
type Direction string

// Direction constants.
const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// Sign maps a direction onto a vote sign: BUY=+1, SELL=-1, HOLD=0.
func (d Direction) Sign() float64 {
	switch d {
	case DirectionBuy:
		return 1
	case DirectionSell:
		return -1
	default:
		return 0
	}
}

// Valid reports whether the direction is one of the known constants.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell || d == DirectionHold
}

// Signal is one strategy's directional opinion with confidence for one
// evaluation timestamp.
type Signal struct {
	StrategyID string
	Timestamp  time.Time
	Direction  Direction
	Confidence float64 // [0, 1]
}

// Validate checks direction and confidence bounds.
func (s Signal) Validate() error {
	if !s.Direction.Valid() {
		return fmt.Errorf("signal %s: unknown direction %q", s.StrategyID, s.Direction)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal %s: confidence %f out of [0,1]", s.StrategyID, s.Confidence)
	}
	return nil
}

// HoldSignal builds an abstaining signal with zero confidence.
// Used when a strategy has insufficient data or its upstream inputs failed.
func HoldSignal(strategyID string, ts time.Time) Signal {
	return Signal{
		StrategyID: strategyID,
		Timestamp:  ts,
		Direction:  DirectionHold,
		Confidence: 0,
	}
}
