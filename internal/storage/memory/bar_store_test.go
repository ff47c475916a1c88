package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage"
)

func testBars(start time.Time, n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		price := 1900 + float64(i)
		bars[i] = domain.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
			Volume:    1000,
		}
	}
	return bars
}

func TestBarStore_InsertAndGetRange(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "XAUUSD", domain.Timeframe1h, testBars(start, 10)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetRange(ctx, "XAUUSD", domain.Timeframe1h, start.Add(2*time.Hour), start.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}

	// Inclusive range: hours 2, 3, 4, 5.
	if len(got) != 4 {
		t.Fatalf("Expected 4 bars, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Errorf("Bars not ordered at position %d", i)
		}
	}
}

func TestBarStore_DuplicateTimestamp(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "XAUUSD", domain.Timeframe1h, testBars(start, 3)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Overlaps the existing series at hour 2.
	err := store.InsertBulk(ctx, "XAUUSD", domain.Timeframe1h, testBars(start.Add(2*time.Hour), 3))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestBarStore_SeparateTimeframes(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "XAUUSD", domain.Timeframe1h, testBars(start, 3)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "XAUUSD", domain.Timeframe1d, testBars(start, 3)); err != nil {
		t.Fatalf("InsertBulk same timestamps on other timeframe failed: %v", err)
	}

	got, err := store.GetRange(ctx, "XAUUSD", domain.Timeframe1d, start, start.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 daily bars, got %d", len(got))
	}
}
