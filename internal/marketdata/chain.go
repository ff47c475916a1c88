package marketdata

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jpillora/backoff"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/observability"
)

// RetryPolicy bounds per-source retries inside the chain.
type RetryPolicy struct {
	Attempts int
	Min      time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy retries each source three times with exponential
// backoff between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Min:      200 * time.Millisecond,
		Max:      2 * time.Second,
	}
}

// Chain tries each source in order, retrying transient failures with
// backoff, and fails with ErrDataUnavailable only when every source is
// exhausted. Source order is the preference order.
type Chain struct {
	sources []Provider
	policy  RetryPolicy
	logger  *log.Logger
}

// NewChain composes sources into a failover provider.
func NewChain(policy RetryPolicy, logger *log.Logger, sources ...Provider) *Chain {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	return &Chain{sources: sources, policy: policy, logger: logger}
}

// GetPriceSeries returns the first successful bar series.
func (c *Chain) GetPriceSeries(ctx context.Context, symbol string, timeframe domain.Timeframe, lookback int) ([]domain.Bar, error) {
	var bars []domain.Bar
	err := c.eachSource(ctx, "price series", symbol, func(ctx context.Context, src Provider) error {
		var err error
		bars, err = src.GetPriceSeries(ctx, symbol, timeframe, lookback)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

// GetNews returns the first successful news feed.
func (c *Chain) GetNews(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	err := c.eachSource(ctx, "news", symbol, func(ctx context.Context, src Provider) error {
		var err error
		items, err = src.GetNews(ctx, symbol)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.RecordNewsFetched(len(items))
	return items, nil
}

func (c *Chain) eachSource(ctx context.Context, what, symbol string, fetch func(context.Context, Provider) error) error {
	if len(c.sources) == 0 {
		return fmt.Errorf("%s for %s: no sources configured: %w", what, symbol, ErrDataUnavailable)
	}

	for i, src := range c.sources {
		b := &backoff.Backoff{
			Min:    c.policy.Min,
			Max:    c.policy.Max,
			Factor: 2,
			Jitter: true,
		}

		for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
			err := fetch(ctx, src)
			if err == nil {
				return nil
			}
			c.logger.Printf("%s source %s attempt %d/%d failed: %v",
				what, sourceName(src, i), attempt, c.policy.Attempts, err)

			if attempt == c.policy.Attempts {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.Duration()):
			}
		}
	}
	return fmt.Errorf("%s for %s: all sources failed: %w", what, symbol, ErrDataUnavailable)
}

func sourceName(src Provider, index int) string {
	if named, ok := src.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("#%d", index)
}

var _ Provider = (*Chain)(nil)
