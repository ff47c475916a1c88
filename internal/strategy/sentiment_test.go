package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"gold-trading-lab/internal/domain"
)

type fakeNewsSource struct {
	items []domain.NewsItem
	err   error
}

func (f *fakeNewsSource) GetNews(_ context.Context, _ string) ([]domain.NewsItem, error) {
	return f.items, f.err
}

type fakeAnalyzer struct {
	scores map[string]float64
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, item domain.NewsItem) (domain.SentimentResult, error) {
	if f.err != nil {
		return domain.SentimentResult{}, f.err
	}
	score := f.scores[item.Headline]
	direction := domain.SentimentNeutral
	if score > 0 {
		direction = domain.SentimentBullish
	} else if score < 0 {
		direction = domain.SentimentBearish
	}
	return domain.SentimentResult{Direction: direction, Score: score}, nil
}

func newsItems(titles ...string) []domain.NewsItem {
	items := make([]domain.NewsItem, len(titles))
	for i, title := range titles {
		items[i] = domain.NewsItem{
			Headline:    title,
			PublishedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		}
	}
	return items
}

func TestSentiment_BuyOnBullishNews(t *testing.T) {
	source := &fakeNewsSource{items: newsItems("fed cuts", "safe haven demand")}
	analyzer := &fakeAnalyzer{scores: map[string]float64{
		"fed cuts":          0.8,
		"safe haven demand": 0.4,
	}}

	s := NewSentimentStrategy("XAUUSD", source, analyzer)
	w := makeWindow(t, []float64{1900, 1905})

	sig, err := s.Evaluate(context.Background(), w)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if sig.Direction != domain.DirectionBuy {
		t.Errorf("expected BUY, got %s", sig.Direction)
	}
	// Mean of 0.8 and 0.4.
	if sig.Confidence != 0.6 {
		t.Errorf("expected confidence 0.6, got %f", sig.Confidence)
	}
}

func TestSentiment_SellOnBearishNews(t *testing.T) {
	source := &fakeNewsSource{items: newsItems("dollar rally")}
	analyzer := &fakeAnalyzer{scores: map[string]float64{"dollar rally": -0.5}}

	s := NewSentimentStrategy("XAUUSD", source, analyzer)
	w := makeWindow(t, []float64{1900, 1895})

	sig, err := s.Evaluate(context.Background(), w)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if sig.Direction != domain.DirectionSell {
		t.Errorf("expected SELL, got %s", sig.Direction)
	}
}

func TestSentiment_AbstainsWhenSourceFails(t *testing.T) {
	source := &fakeNewsSource{err: errors.New("all providers down")}
	s := NewSentimentStrategy("XAUUSD", source, &fakeAnalyzer{})
	w := makeWindow(t, []float64{1900, 1905})

	sig, err := s.Evaluate(context.Background(), w)
	if err != nil {
		t.Fatalf("abstention must not surface an error, got: %v", err)
	}

	if sig.Direction != domain.DirectionHold || sig.Confidence != 0 {
		t.Errorf("expected HOLD/0, got %s/%f", sig.Direction, sig.Confidence)
	}
}

func TestSentiment_AbstainsWhenAnalyzerFails(t *testing.T) {
	source := &fakeNewsSource{items: newsItems("fed cuts")}
	analyzer := &fakeAnalyzer{err: errors.New("model unavailable")}

	s := NewSentimentStrategy("XAUUSD", source, analyzer)
	w := makeWindow(t, []float64{1900, 1905})

	sig, err := s.Evaluate(context.Background(), w)
	if err != nil {
		t.Fatalf("abstention must not surface an error, got: %v", err)
	}

	if sig.Direction != domain.DirectionHold {
		t.Errorf("expected HOLD, got %s", sig.Direction)
	}
}
