// Package sentiment scores news items for directional bias. Analyzers
// are composed into a fallback chain ending in a local lexicon, so a
// remote NLP outage degrades quality instead of availability.
package sentiment

import (
	"context"
	"errors"

	"gold-trading-lab/internal/domain"
)

// ErrAnalysisFailed means every analyzer in the chain failed for an item.
var ErrAnalysisFailed = errors.New("sentiment analysis failed")

// Analyzer scores one news item into a direction and a score in [-1, 1].
type Analyzer interface {
	Analyze(ctx context.Context, item domain.NewsItem) (domain.SentimentResult, error)
}

// Classify maps a score onto the direction taxonomy. Scores within the
// neutral band around zero are NEUTRAL.
func Classify(score float64) domain.SentimentDirection {
	const neutralBand = 0.05
	switch {
	case score > neutralBand:
		return domain.SentimentBullish
	case score < -neutralBand:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}
