// Package stub provides an in-memory marketdata.Provider for tests and
// offline runs.
package stub

import (
	"context"
	"fmt"
	"sync"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/marketdata"
)

type seriesKey struct {
	Symbol    string
	Timeframe domain.Timeframe
}

// Provider implements marketdata.Provider from preloaded data.
// A non-nil Err fails every call, which makes failover paths testable.
type Provider struct {
	mu    sync.Mutex
	bars  map[seriesKey][]domain.Bar
	news  map[string][]domain.NewsItem
	Err   error
	Calls int
}

// NewProvider creates an empty stub provider.
func NewProvider() *Provider {
	return &Provider{
		bars: make(map[seriesKey][]domain.Bar),
		news: make(map[string][]domain.NewsItem),
	}
}

// SetBars preloads a bar series for the symbol/timeframe pair.
func (p *Provider) SetBars(symbol string, timeframe domain.Timeframe, bars []domain.Bar) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[seriesKey{Symbol: symbol, Timeframe: timeframe}] = bars
}

// SetNews preloads news items for the symbol.
func (p *Provider) SetNews(symbol string, items []domain.NewsItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.news[symbol] = items
}

// GetPriceSeries returns up to lookback most recent preloaded bars.
func (p *Provider) GetPriceSeries(_ context.Context, symbol string, timeframe domain.Timeframe, lookback int) ([]domain.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}

	series, ok := p.bars[seriesKey{Symbol: symbol, Timeframe: timeframe}]
	if !ok || len(series) == 0 {
		return nil, fmt.Errorf("stub: no bars for %s/%s: %w", symbol, timeframe, marketdata.ErrDataUnavailable)
	}
	if len(series) > lookback && lookback > 0 {
		series = series[len(series)-lookback:]
	}
	out := make([]domain.Bar, len(series))
	copy(out, series)
	return out, nil
}

// GetNews returns the preloaded news items. An empty feed is not an error.
func (p *Provider) GetNews(_ context.Context, symbol string) ([]domain.NewsItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}

	out := make([]domain.NewsItem, len(p.news[symbol]))
	copy(out, p.news[symbol])
	return out, nil
}

var _ marketdata.Provider = (*Provider)(nil)
