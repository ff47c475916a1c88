package marketdata_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/marketdata"
	"gold-trading-lab/internal/marketdata/stub"
)

func fastPolicy(attempts int) marketdata.RetryPolicy {
	return marketdata.RetryPolicy{
		Attempts: attempts,
		Min:      time.Millisecond,
		Max:      2 * time.Millisecond,
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func hourlyBars(n int) []domain.Bar {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      1900,
			High:      1905,
			Low:       1895,
			Close:     1902,
			Volume:    1000,
		}
	}
	return bars
}

func TestChain_FailsOverToSecondSource(t *testing.T) {
	ctx := context.Background()

	broken := stub.NewProvider()
	broken.Err = errors.New("connection refused")

	healthy := stub.NewProvider()
	healthy.SetBars("XAUUSD", domain.Timeframe1h, hourlyBars(5))

	chain := marketdata.NewChain(fastPolicy(2), testLogger(), broken, healthy)

	bars, err := chain.GetPriceSeries(ctx, "XAUUSD", domain.Timeframe1h, 10)
	require.NoError(t, err)
	assert.Len(t, bars, 5)

	// The broken source is retried before failing over.
	assert.Equal(t, 2, broken.Calls)
	assert.Equal(t, 1, healthy.Calls)
}

func TestChain_PrefersFirstSource(t *testing.T) {
	ctx := context.Background()

	primary := stub.NewProvider()
	primary.SetBars("XAUUSD", domain.Timeframe1h, hourlyBars(3))
	secondary := stub.NewProvider()
	secondary.SetBars("XAUUSD", domain.Timeframe1h, hourlyBars(8))

	chain := marketdata.NewChain(fastPolicy(3), testLogger(), primary, secondary)

	bars, err := chain.GetPriceSeries(ctx, "XAUUSD", domain.Timeframe1h, 10)
	require.NoError(t, err)
	assert.Len(t, bars, 3, "primary source result must win")
	assert.Zero(t, secondary.Calls)
}

func TestChain_AllSourcesExhausted(t *testing.T) {
	ctx := context.Background()

	first := stub.NewProvider()
	first.Err = errors.New("timeout")
	second := stub.NewProvider()
	second.Err = errors.New("http 503")

	chain := marketdata.NewChain(fastPolicy(2), testLogger(), first, second)

	_, err := chain.GetPriceSeries(ctx, "XAUUSD", domain.Timeframe1h, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, marketdata.ErrDataUnavailable)
	assert.Equal(t, 2, first.Calls)
	assert.Equal(t, 2, second.Calls)
}

func TestChain_NoSources(t *testing.T) {
	chain := marketdata.NewChain(fastPolicy(1), testLogger())

	_, err := chain.GetPriceSeries(context.Background(), "XAUUSD", domain.Timeframe1h, 10)
	assert.ErrorIs(t, err, marketdata.ErrDataUnavailable)
}

func TestChain_NewsFallsThrough(t *testing.T) {
	ctx := context.Background()

	noNews := stub.NewProvider()
	noNews.Err = marketdata.ErrDataUnavailable

	withNews := stub.NewProvider()
	withNews.SetNews("XAUUSD", []domain.NewsItem{
		{Headline: "Fed holds rates", Source: "wire", PublishedAt: time.Now().UTC()},
	})

	chain := marketdata.NewChain(fastPolicy(1), testLogger(), noNews, withNews)

	items, err := chain.GetNews(ctx, "XAUUSD")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fed holds rates", items[0].Headline)
}

func TestChain_ContextCancelledDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	broken := stub.NewProvider()
	broken.Err = errors.New("down")

	policy := marketdata.RetryPolicy{Attempts: 5, Min: time.Hour, Max: time.Hour}
	chain := marketdata.NewChain(policy, testLogger(), broken)

	cancel()
	_, err := chain.GetPriceSeries(ctx, "XAUUSD", domain.Timeframe1h, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, broken.Calls, "no second attempt after cancellation")
}
