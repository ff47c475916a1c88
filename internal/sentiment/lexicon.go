package sentiment

import (
	"context"
	"strings"

	"gold-trading-lab/internal/domain"
)

// Phrase lists are tuned for gold: risk-off and easing talk is bullish,
// risk-on and tightening talk is bearish.
var (
	bullishPhrases = []string{
		"rally", "rallies", "surge", "soar", "climb", "record high",
		"safe haven", "safe-haven", "inflation", "rate cut", "dovish",
		"weak dollar", "dollar weakens", "tensions", "uncertainty",
		"central bank buying", "strong demand",
	}
	bearishPhrases = []string{
		"fall", "falls", "drop", "plunge", "slump", "slide", "retreat",
		"rate hike", "hawkish", "strong dollar", "dollar strengthens",
		"risk appetite", "sell-off", "selloff", "profit-taking",
		"outflow", "yields rise",
	}
)

// LexiconAnalyzer scores items by counting directional phrases. It is the
// deterministic last resort of the chain: no network, no failure modes.
type LexiconAnalyzer struct{}

// NewLexiconAnalyzer creates a LexiconAnalyzer.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

// Name returns the analyzer identifier.
func (a *LexiconAnalyzer) Name() string {
	return "lexicon"
}

// Analyze scores (bullish hits - bearish hits) / total hits, or NEUTRAL 0
// when no phrase matches. It never returns an error.
func (a *LexiconAnalyzer) Analyze(_ context.Context, item domain.NewsItem) (domain.SentimentResult, error) {
	text := strings.ToLower(item.Headline + " " + item.Body)

	bullish := countHits(text, bullishPhrases)
	bearish := countHits(text, bearishPhrases)
	total := bullish + bearish
	if total == 0 {
		return domain.SentimentResult{Direction: domain.SentimentNeutral, Score: 0}, nil
	}

	score := float64(bullish-bearish) / float64(total)
	return domain.SentimentResult{Direction: Classify(score), Score: score}, nil
}

func countHits(text string, phrases []string) int {
	hits := 0
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			hits++
		}
	}
	return hits
}

var _ Analyzer = (*LexiconAnalyzer)(nil)
