package domain

import "time"

// NewsItem is one normalized headline from the news feed.
type NewsItem struct {
	Headline    string
	Body        string
	PublishedAt time.Time
	Source      string
}

// SentimentDirection is the NLP collaborator's directional read of a
// news item.
type SentimentDirection string

// Sentiment direction constants.
const (
	SentimentBullish SentimentDirection = "BULLISH"
	SentimentBearish SentimentDirection = "BEARISH"
	SentimentNeutral SentimentDirection = "NEUTRAL"
)

// SentimentResult is the analyzed sentiment of one news item.
// Score is in [-1, 1]; positive means bullish.
type SentimentResult struct {
	Direction SentimentDirection
	Score     float64
}
