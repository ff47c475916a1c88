package strategy

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gold-trading-lab/internal/domain"
)

// ClassifierStrategy is a rolling-window nearest-centroid classifier over
// indicator features. For every bar inside the lookback it builds a feature
// vector and labels it with the sign of the next bar's return, averages the
// vectors per label into centroids, then classifies the current bar by the
// nearer centroid.
//
// The strategy is deterministic: it is a pure function of the window plus
// an explicit seed. The seed only perturbs centroids for labels that have
// no samples in the lookback, and is recorded in the strategy ID so runs
// are reproducible.
type ClassifierStrategy struct {
	Lookback int
	Seed     int64
}

// NewClassifierStrategy creates a new ClassifierStrategy.
func NewClassifierStrategy(lookback int, seed int64) *ClassifierStrategy {
	return &ClassifierStrategy{
		Lookback: lookback,
		Seed:     seed,
	}
}

// ID returns the strategy identifier including parameters and seed.
func (s *ClassifierStrategy) ID() string {
	return fmt.Sprintf("WINDOW_CLASSIFIER_%d_seed%d", s.Lookback, s.Seed)
}

// featureDim is the size of the per-bar feature vector.
const featureDim = 3

// features builds the vector for the bar at index i: one-bar return,
// RSI distance from neutral, and close position inside the bar range.
func features(w *Window, i int) [featureDim]float64 {
	bar := w.Bar(i)
	prev := w.Bar(i - 1)

	ret := 0.0
	if prev.Close != 0 {
		ret = (bar.Close - prev.Close) / prev.Close * 100
	}

	closes := make([]float64, i+1)
	for j := 0; j <= i; j++ {
		closes[j] = w.Bar(j).Close
	}
	rsiDist := (rsi(closes, 14) - 50) / 50

	rangePos := 0.5
	if bar.High != bar.Low {
		rangePos = (bar.Close - bar.Low) / (bar.High - bar.Low)
	}

	return [featureDim]float64{ret, rsiDist, rangePos}
}

// Evaluate classifies the current bar by the nearer of the up/down
// centroids learned from the lookback. Confidence is the normalized margin
// between the two centroid distances.
func (s *ClassifierStrategy) Evaluate(_ context.Context, w *Window) (domain.Signal, error) {
	// Need lookback samples, each with a previous bar and a next-bar label.
	if w.Len() < s.Lookback+2 {
		return hold(s.ID(), w), nil
	}

	var (
		upSum, downSum     [featureDim]float64
		upCount, downCount int
	)

	// Label each lookback bar with the sign of the next bar's return.
	last := w.Len() - 1
	for i := last - s.Lookback; i < last; i++ {
		f := features(w, i)
		next := w.Bar(i + 1).Close - w.Bar(i).Close

		switch {
		case next > 0:
			for d := 0; d < featureDim; d++ {
				upSum[d] += f[d]
			}
			upCount++
		case next < 0:
			for d := 0; d < featureDim; d++ {
				downSum[d] += f[d]
			}
			downCount++
		}
	}

	up := centroid(upSum, upCount, s.Seed, 1)
	down := centroid(downSum, downCount, s.Seed, 2)

	cur := features(w, last)
	distUp := distance(cur, up)
	distDown := distance(cur, down)

	total := distUp + distDown
	if total == 0 {
		return hold(s.ID(), w), nil
	}
	confidence := clamp01(math.Abs(distDown-distUp) / total)

	switch {
	case distUp < distDown:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case distDown < distUp:
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

// centroid averages the summed vectors; an empty class gets a small seeded
// jitter around the origin so the two centroids never coincide.
func centroid(sum [featureDim]float64, count int, seed, salt int64) [featureDim]float64 {
	if count > 0 {
		var c [featureDim]float64
		for d := 0; d < featureDim; d++ {
			c[d] = sum[d] / float64(count)
		}
		return c
	}

	rng := rand.New(rand.NewSource(seed + salt))
	var c [featureDim]float64
	for d := 0; d < featureDim; d++ {
		c[d] = (rng.Float64() - 0.5) * 0.01
	}
	return c
}

func distance(a, b [featureDim]float64) float64 {
	sum := 0.0
	for d := 0; d < featureDim; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Ensure ClassifierStrategy implements Strategy
var _ Strategy = (*ClassifierStrategy)(nil)
