// Package marketdata supplies price and news snapshots to the decision
// pipeline. Sources are composed into an ordered failover chain; the
// pipeline only ever sees the Provider interface.
package marketdata

import (
	"context"
	"errors"

	"gold-trading-lab/internal/domain"
)

// ErrDataUnavailable means no source produced the requested data. A
// cycle that hits it aborts without a decision; trades are never opened
// on stale data.
var ErrDataUnavailable = errors.New("market data unavailable")

// Provider is the market snapshot interface consumed by the engine.
// GetPriceSeries returns bars ordered by strictly increasing timestamp.
type Provider interface {
	GetPriceSeries(ctx context.Context, symbol string, timeframe domain.Timeframe, lookback int) ([]domain.Bar, error)
	GetNews(ctx context.Context, symbol string) ([]domain.NewsItem, error)
}
