package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"gold-trading-lab/internal/domain"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPSource fetches bars and news from a REST price feed.
type HTTPSource struct {
	client *resty.Client
	name   string
}

// NewHTTPSource creates a source against baseURL. The name identifies the
// feed in errors and logs.
func NewHTTPSource(name, baseURL, apiKey string) *HTTPSource {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(defaultHTTPTimeout)
	if apiKey != "" {
		client.SetQueryParam("token", apiKey)
	}

	return &HTTPSource{client: client, name: name}
}

// Name returns the feed identifier.
func (s *HTTPSource) Name() string {
	return s.name
}

type barPayload struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

type barsResponse struct {
	Bars []barPayload `json:"bars"`
}

type newsPayload struct {
	Headline      string `json:"headline"`
	Body          string `json:"body"`
	PublishedAtMs int64  `json:"published_at_ms"`
	Source        string `json:"source"`
}

type newsResponse struct {
	Items []newsPayload `json:"items"`
}

// GetPriceSeries fetches the lookback most recent bars for the symbol.
// The returned series is validated for strict timestamp order.
func (s *HTTPSource) GetPriceSeries(ctx context.Context, symbol string, timeframe domain.Timeframe, lookback int) ([]domain.Bar, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("%s: lookback %d must be > 0", s.name, lookback)
	}

	var payload barsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":    symbol,
			"timeframe": string(timeframe),
			"lookback":  strconv.Itoa(lookback),
		}).
		SetResult(&payload).
		Get("/v1/bars")
	if err != nil {
		return nil, fmt.Errorf("%s: fetch bars for %s: %w", s.name, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: fetch bars for %s: status %s", s.name, symbol, resp.Status())
	}

	bars := make([]domain.Bar, 0, len(payload.Bars))
	for _, b := range payload.Bars {
		bars = append(bars, domain.Bar{
			Timestamp: time.UnixMilli(b.TimestampMs).UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	if err := domain.ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("%s: bars for %s: %w", s.name, symbol, err)
	}
	return bars, nil
}

// GetNews fetches recent headlines for the symbol. An empty feed is not
// an error.
func (s *HTTPSource) GetNews(ctx context.Context, symbol string) ([]domain.NewsItem, error) {
	var payload newsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&payload).
		Get("/v1/news")
	if err != nil {
		return nil, fmt.Errorf("%s: fetch news for %s: %w", s.name, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: fetch news for %s: status %s", s.name, symbol, resp.Status())
	}

	items := make([]domain.NewsItem, 0, len(payload.Items))
	for _, n := range payload.Items {
		items = append(items, domain.NewsItem{
			Headline:    n.Headline,
			Body:        n.Body,
			PublishedAt: time.UnixMilli(n.PublishedAtMs).UTC(),
			Source:      n.Source,
		})
	}
	return items, nil
}

var _ Provider = (*HTTPSource)(nil)
