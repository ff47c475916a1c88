package strategy

import (
	"context"
	"fmt"
	"math"

	"gold-trading-lab/internal/domain"
)

// NewsSource supplies recent news items for an instrument.
type NewsSource interface {
	GetNews(ctx context.Context, symbol string) ([]domain.NewsItem, error)
}

// Analyzer scores one news item. Satisfied by sentiment.Chain.
type Analyzer interface {
	Analyze(ctx context.Context, item domain.NewsItem) (domain.SentimentResult, error)
}

// SentimentStrategy turns news sentiment into a directional signal by
// averaging item scores. Any upstream failure makes the strategy abstain
// (HOLD, confidence 0) instead of surfacing an error: news outages must
// not take down the whole evaluation cycle.
type SentimentStrategy struct {
	Symbol   string
	source   NewsSource
	analyzer Analyzer
}

// NewSentimentStrategy creates a new SentimentStrategy.
func NewSentimentStrategy(symbol string, source NewsSource, analyzer Analyzer) *SentimentStrategy {
	return &SentimentStrategy{
		Symbol:   symbol,
		source:   source,
		analyzer: analyzer,
	}
}

// ID returns the strategy identifier.
func (s *SentimentStrategy) ID() string {
	return fmt.Sprintf("SENTIMENT_%s", s.Symbol)
}

// Evaluate averages the sentiment score over the fetched news items.
// A positive mean is BUY, negative SELL; confidence is the mean magnitude.
func (s *SentimentStrategy) Evaluate(ctx context.Context, w *Window) (domain.Signal, error) {
	items, err := s.source.GetNews(ctx, s.Symbol)
	if err != nil || len(items) == 0 {
		return hold(s.ID(), w), nil
	}

	sum := 0.0
	scored := 0
	for _, item := range items {
		result, err := s.analyzer.Analyze(ctx, item)
		if err != nil {
			// Skip items the analyzer chain could not score.
			continue
		}
		sum += result.Score
		scored++
	}

	if scored == 0 {
		return hold(s.ID(), w), nil
	}

	mean := sum / float64(scored)
	confidence := clamp01(math.Abs(mean))

	switch {
	case mean > 0:
		return domain.Signal{
			StrategyID: s.ID(),
			Timestamp:  w.Time(),
			Direction:  domain.DirectionBuy,
			Confidence: confidence,
		}, nil
	case mean < 0:
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

// Ensure SentimentStrategy implements Strategy
var _ Strategy = (*SentimentStrategy)(nil)
