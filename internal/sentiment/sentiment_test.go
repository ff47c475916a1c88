package sentiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gold-trading-lab/internal/domain"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type failingAnalyzer struct {
	calls int
}

func (a *failingAnalyzer) Analyze(context.Context, domain.NewsItem) (domain.SentimentResult, error) {
	a.calls++
	return domain.SentimentResult{}, errors.New("provider down")
}

type fixedAnalyzer struct {
	result domain.SentimentResult
	calls  int
}

func (a *fixedAnalyzer) Analyze(context.Context, domain.NewsItem) (domain.SentimentResult, error) {
	a.calls++
	return a.result, nil
}

func TestChain_FallsBackInOrder(t *testing.T) {
	primary := &failingAnalyzer{}
	secondary := &fixedAnalyzer{result: domain.SentimentResult{Direction: domain.SentimentBearish, Score: -0.6}}
	lexicon := NewLexiconAnalyzer()

	chain := NewChain(testLogger(), primary, secondary, lexicon)

	result, err := chain.Analyze(context.Background(), domain.NewsItem{Headline: "Gold falls"})
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentBearish, result.Direction)
	assert.InDelta(t, -0.6, result.Score, 0.001)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestChain_PrimaryWins(t *testing.T) {
	primary := &fixedAnalyzer{result: domain.SentimentResult{Direction: domain.SentimentBullish, Score: 0.8}}
	secondary := &fixedAnalyzer{result: domain.SentimentResult{Direction: domain.SentimentBearish, Score: -0.8}}

	chain := NewChain(testLogger(), primary, secondary)

	result, err := chain.Analyze(context.Background(), domain.NewsItem{Headline: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentBullish, result.Direction)
	assert.Zero(t, secondary.calls)
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(testLogger(), &failingAnalyzer{}, &failingAnalyzer{})

	_, err := chain.Analyze(context.Background(), domain.NewsItem{Headline: "x"})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain(testLogger())

	_, err := chain.Analyze(context.Background(), domain.NewsItem{Headline: "x"})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestLexicon_Scores(t *testing.T) {
	tests := []struct {
		name      string
		headline  string
		body      string
		direction domain.SentimentDirection
		score     float64
	}{
		{
			name:      "bullish safe haven flow",
			headline:  "Gold rallies to record high on safe haven demand",
			direction: domain.SentimentBullish,
			score:     1.0,
		},
		{
			name:      "bearish hawkish dollar",
			headline:  "Gold falls as hawkish Fed lifts the strong dollar",
			direction: domain.SentimentBearish,
			score:     -1.0,
		},
		{
			name:      "mixed leans bullish",
			headline:  "Gold climbs on rate cut bets despite profit-taking",
			direction: domain.SentimentBullish,
			score:     1.0 / 3.0,
		},
		{
			name:      "no keywords",
			headline:  "Quarterly refinery maintenance schedule published",
			direction: domain.SentimentNeutral,
			score:     0,
		},
	}

	a := NewLexiconAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Analyze(context.Background(), domain.NewsItem{Headline: tt.headline, Body: tt.body})
			require.NoError(t, err)
			assert.Equal(t, tt.direction, result.Direction)
			assert.InDelta(t, tt.score, result.Score, 0.001)
		})
	}
}

func TestLexicon_Deterministic(t *testing.T) {
	a := NewLexiconAnalyzer()
	item := domain.NewsItem{Headline: "Gold surges on inflation fears, dollar weakens"}

	first, err := a.Analyze(context.Background(), item)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := a.Analyze(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassify_NeutralBand(t *testing.T) {
	assert.Equal(t, domain.SentimentNeutral, Classify(0))
	assert.Equal(t, domain.SentimentNeutral, Classify(0.04))
	assert.Equal(t, domain.SentimentNeutral, Classify(-0.04))
	assert.Equal(t, domain.SentimentBullish, Classify(0.2))
	assert.Equal(t, domain.SentimentBearish, Classify(-0.2))
}

func TestRemoteAnalyzer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sentiment", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"direction":"BULLISH","score":0.7}`)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer("primary", srv.URL, "key")

	result, err := a.Analyze(context.Background(), domain.NewsItem{Headline: "Gold up"})
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentBullish, result.Direction)
	assert.InDelta(t, 0.7, result.Score, 0.001)
}

func TestRemoteAnalyzer_DerivesDirectionFromScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"score":-0.5}`)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer("primary", srv.URL, "")

	result, err := a.Analyze(context.Background(), domain.NewsItem{Headline: "Gold down"})
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentBearish, result.Direction)
}

func TestRemoteAnalyzer_RejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "score out of range", body: `{"direction":"BULLISH","score":1.5}`},
		{name: "unknown direction", body: `{"direction":"SIDEWAYS","score":0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			a := NewRemoteAnalyzer("primary", srv.URL, "")
			_, err := a.Analyze(context.Background(), domain.NewsItem{Headline: "x"})
			assert.Error(t, err)
		})
	}
}

func TestRemoteAnalyzer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer("primary", srv.URL, "")
	_, err := a.Analyze(context.Background(), domain.NewsItem{Headline: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
