package domain

import "time"

// Decision is the aggregator's single combined directional call for one
// evaluation cycle. It is derived from the contributing signals and is
// never mutated independently of them.
type Decision struct {
	Timestamp  time.Time
	Direction  Direction
	Confidence float64 // [0, 1]

	// ContributingSignals are the accepted signals in deterministic order
	// (sorted by strategy ID).
	ContributingSignals []Signal
}

// HoldDecision is the degenerate decision produced from an empty signal set.
func HoldDecision(ts time.Time) Decision {
	return Decision{
		Timestamp:  ts,
		Direction:  DirectionHold,
		Confidence: 0,
	}
}

// Actionable reports whether the decision calls for opening a position.
func (d Decision) Actionable() bool {
	return d.Direction == DirectionBuy || d.Direction == DirectionSell
}
