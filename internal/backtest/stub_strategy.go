package backtest

import (
	"context"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/strategy"
)

// scriptedStrategy emits a fixed direction at scripted bar timestamps and
// HOLD everywhere else. It is stateless, so one instance is safe to share
// across concurrent runs.
type scriptedStrategy struct {
	id         string
	confidence float64
	// script maps a bar timestamp (unix milli) to the emitted direction.
	script map[int64]domain.Direction
}

func newScriptedStrategy(id string, confidence float64, script map[int64]domain.Direction) *scriptedStrategy {
	return &scriptedStrategy{id: id, confidence: confidence, script: script}
}

func (s *scriptedStrategy) Evaluate(_ context.Context, w *strategy.Window) (domain.Signal, error) {
	dir, ok := s.script[w.Time().UnixMilli()]
	if !ok || dir == domain.DirectionHold {
		return domain.HoldSignal(s.id, w.Time()), nil
	}
	return domain.Signal{
		StrategyID: s.id,
		Timestamp:  w.Time(),
		Direction:  dir,
		Confidence: s.confidence,
	}, nil
}

func (s *scriptedStrategy) ID() string {
	return s.id
}

// prefixRecorder records the window length of every evaluation so tests
// can verify that the engine only ever exposes the bar prefix. Not safe
// for concurrent runs.
type prefixRecorder struct {
	id      string
	lengths []int
}

func newPrefixRecorder(id string) *prefixRecorder {
	return &prefixRecorder{id: id}
}

func (s *prefixRecorder) Evaluate(_ context.Context, w *strategy.Window) (domain.Signal, error) {
	s.lengths = append(s.lengths, w.Len())
	return domain.HoldSignal(s.id, w.Time()), nil
}

func (s *prefixRecorder) ID() string {
	return s.id
}

var (
	_ strategy.Strategy = (*scriptedStrategy)(nil)
	_ strategy.Strategy = (*prefixRecorder)(nil)
)
