package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"gold-trading-lab/internal/domain"
)

const defaultRemoteTimeout = 20 * time.Second

// RemoteAnalyzer scores items through an external NLP service.
type RemoteAnalyzer struct {
	client *resty.Client
	name   string
}

// NewRemoteAnalyzer creates an analyzer against baseURL. The name
// identifies the provider in chain logs.
func NewRemoteAnalyzer(name, baseURL, apiKey string) *RemoteAnalyzer {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(defaultRemoteTimeout)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &RemoteAnalyzer{client: client, name: name}
}

// Name returns the provider identifier.
func (a *RemoteAnalyzer) Name() string {
	return a.name
}

type analyzeRequest struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
}

type analyzeResponse struct {
	Direction string  `json:"direction"`
	Score     float64 `json:"score"`
}

// Analyze posts the item and validates the returned score range.
func (a *RemoteAnalyzer) Analyze(ctx context.Context, item domain.NewsItem) (domain.SentimentResult, error) {
	var payload analyzeResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Headline: item.Headline, Body: item.Body}).
		SetResult(&payload).
		Post("/v1/sentiment")
	if err != nil {
		return domain.SentimentResult{}, fmt.Errorf("%s: analyze %q: %w", a.name, item.Headline, err)
	}
	if resp.IsError() {
		return domain.SentimentResult{}, fmt.Errorf("%s: analyze %q: status %s", a.name, item.Headline, resp.Status())
	}
	if payload.Score < -1 || payload.Score > 1 {
		return domain.SentimentResult{}, fmt.Errorf("%s: score %f out of [-1,1]", a.name, payload.Score)
	}

	direction := domain.SentimentDirection(payload.Direction)
	switch direction {
	case domain.SentimentBullish, domain.SentimentBearish, domain.SentimentNeutral:
	case "":
		direction = Classify(payload.Score)
	default:
		return domain.SentimentResult{}, fmt.Errorf("%s: unknown direction %q", a.name, payload.Direction)
	}

	return domain.SentimentResult{Direction: direction, Score: payload.Score}, nil
}

var _ Analyzer = (*RemoteAnalyzer)(nil)
