// Package aggregate combines independent strategy signals into one decision.
package aggregate

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/observability"
)

// Combination methods.
const (
	MethodWeightedVote = "weighted_vote"
	MethodMajority     = "majority"
)

// Combiner errors
var (
	ErrStaleSignal    = errors.New("stale signal")
	ErrUnknownMethod  = errors.New("unknown combination method")
	ErrInvalidWeight  = errors.New("strategy weight must be positive")
	ErrUnknownSignal  = errors.New("signal from strategy without a weight")
	ErrInvalidSignal  = errors.New("invalid signal")
)

// Combiner turns a set of per-strategy signals into a single Decision.
// The zero threshold means any nonzero weighted score produces a direction.
type Combiner struct {
	Method    string
	Threshold float64

	logger *log.Logger
}

// NewCombiner creates a Combiner. A nil logger disables stale-signal logging.
func NewCombiner(method string, threshold float64, logger *log.Logger) (*Combiner, error) {
	if method != MethodWeightedVote && method != MethodMajority {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("combiner threshold %f must be >= 0", threshold)
	}
	return &Combiner{Method: method, Threshold: threshold, logger: logger}, nil
}

// Freshness checks that a signal is stamped exactly at the evaluation
// timestamp. A mismatch wraps ErrStaleSignal.
func Freshness(sig domain.Signal, ts time.Time) error {
	if !sig.Timestamp.Equal(ts) {
		return fmt.Errorf("%w: %s stamped %s, evaluating %s",
			ErrStaleSignal, sig.StrategyID,
			sig.Timestamp.Format(time.RFC3339), ts.Format(time.RFC3339))
	}
	return nil
}

// Combine aggregates signals stamped at ts under the given weights.
//
// Signals whose timestamp differs from ts are stale: they are rejected
// individually (logged) and the remaining signals are combined. An empty
// accepted set yields HOLD with zero confidence, never an error. A weight
// that is missing or <= 0 for an accepted signal is a configuration error.
func (c *Combiner) Combine(ts time.Time, signals []domain.Signal, weights map[string]float64) (domain.Decision, error) {
	for id, w := range weights {
		if w <= 0 {
			return domain.Decision{}, fmt.Errorf("%w: %s has weight %f", ErrInvalidWeight, id, w)
		}
	}

	accepted := make([]domain.Signal, 0, len(signals))
	for _, sig := range signals {
		if err := sig.Validate(); err != nil {
			return domain.Decision{}, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
		}
		if err := Freshness(sig, ts); err != nil {
			observability.RecordStaleSignal()
			if c.logger != nil {
				c.logger.Printf("rejecting signal: %v", err)
			}
			continue
		}
		if _, ok := weights[sig.StrategyID]; !ok {
			return domain.Decision{}, fmt.Errorf("%w: %s", ErrUnknownSignal, sig.StrategyID)
		}
		accepted = append(accepted, sig)
	}

	if len(accepted) == 0 {
		return domain.HoldDecision(ts), nil
	}

	// Deterministic order for ContributingSignals and tie-breaks.
	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].StrategyID < accepted[j].StrategyID
	})

	switch c.Method {
	case MethodWeightedVote:
		return c.weightedVote(ts, accepted, weights), nil
	case MethodMajority:
		return c.majority(ts, accepted, weights), nil
	default:
		return domain.Decision{}, fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
}

// weightedVote scores sum(w_i * sign_i * conf_i); the direction is the
// score's sign past the threshold and the confidence is |score| normalized
// by the total weight of the accepted signals.
func (c *Combiner) weightedVote(ts time.Time, accepted []domain.Signal, weights map[string]float64) domain.Decision {
	score := 0.0
	totalWeight := 0.0
	for _, sig := range accepted {
		w := weights[sig.StrategyID]
		score += w * sig.Direction.Sign() * sig.Confidence
		totalWeight += w
	}

	direction := domain.DirectionHold
	if score > c.Threshold {
		direction = domain.DirectionBuy
	} else if score < -c.Threshold {
		direction = domain.DirectionSell
	}

	confidence := 0.0
	if direction != domain.DirectionHold && totalWeight > 0 {
		confidence = math.Min(math.Abs(score)/totalWeight, 1)
	}

	return domain.Decision{
		Timestamp:           ts,
		Direction:           direction,
		Confidence:          confidence,
		ContributingSignals: accepted,
	}
}

// majority picks the direction with the most votes. Ties break to the
// higher total confidence, then to the direction voted by the
// lexicographically smallest strategy ID. HOLD votes never win a tie
// against an actionable direction.
func (c *Combiner) majority(ts time.Time, accepted []domain.Signal, weights map[string]float64) domain.Decision {
	votes := map[domain.Direction]int{}
	confSum := map[domain.Direction]float64{}
	firstVoter := map[domain.Direction]string{}

	for _, sig := range accepted {
		votes[sig.Direction]++
		confSum[sig.Direction] += sig.Confidence
		// accepted is sorted by strategy ID, first vote is the smallest.
		if _, ok := firstVoter[sig.Direction]; !ok {
			firstVoter[sig.Direction] = sig.StrategyID
		}
	}

	directions := []domain.Direction{domain.DirectionBuy, domain.DirectionSell, domain.DirectionHold}

	var winner domain.Direction
	for _, d := range directions {
		if votes[d] == 0 {
			continue
		}
		if winner == "" {
			winner = d
			continue
		}
		// HOLD only wins outright; it never takes a vote-count tie from
		// an actionable direction. BUY and SELL precede it above, so the
		// current winner is actionable here.
		if d == domain.DirectionHold && votes[d] == votes[winner] {
			continue
		}
		switch {
		case votes[d] > votes[winner]:
			winner = d
		case votes[d] == votes[winner] && confSum[d] > confSum[winner]:
			winner = d
		case votes[d] == votes[winner] && confSum[d] == confSum[winner] && firstVoter[d] < firstVoter[winner]:
			winner = d
		}
	}
	if winner == "" {
		winner = domain.DirectionHold
	}

	confidence := 0.0
	if winner != domain.DirectionHold && votes[winner] > 0 {
		confidence = math.Min(confSum[winner]/float64(votes[winner]), 1)
	}

	return domain.Decision{
		Timestamp:           ts,
		Direction:           winner,
		Confidence:          confidence,
		ContributingSignals: accepted,
	}
}
