package sentiment

import (
	"context"
	"fmt"
	"log"

	"gold-trading-lab/internal/domain"
)

// Chain tries analyzers in order and returns the first successful result.
// The intended composition is remote primary, remote secondary, then the
// lexicon; with the lexicon last the chain only fails if it is empty or
// every analyzer errors.
type Chain struct {
	analyzers []Analyzer
	logger    *log.Logger
}

// NewChain composes analyzers in fallback order.
func NewChain(logger *log.Logger, analyzers ...Analyzer) *Chain {
	return &Chain{analyzers: analyzers, logger: logger}
}

// Analyze returns the first analyzer's successful result.
func (c *Chain) Analyze(ctx context.Context, item domain.NewsItem) (domain.SentimentResult, error) {
	if len(c.analyzers) == 0 {
		return domain.SentimentResult{}, fmt.Errorf("no analyzers configured: %w", ErrAnalysisFailed)
	}

	for i, a := range c.analyzers {
		result, err := a.Analyze(ctx, item)
		if err == nil {
			return result, nil
		}
		c.logger.Printf("analyzer %s failed for %q: %v", analyzerName(a, i), item.Headline, err)
	}
	return domain.SentimentResult{}, fmt.Errorf("all analyzers failed for %q: %w", item.Headline, ErrAnalysisFailed)
}

func analyzerName(a Analyzer, index int) string {
	if named, ok := a.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("#%d", index)
}

var _ Analyzer = (*Chain)(nil)
