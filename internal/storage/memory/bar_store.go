package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[seriesKey][]domain.Bar // ordered by timestamp ASC
}

type seriesKey struct {
	instrument string
	timeframe  domain.Timeframe
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[seriesKey][]domain.Bar),
	}
}

// InsertBulk adds bars for an instrument/timeframe. Fails the entire batch
// with ErrDuplicateKey on any duplicate timestamp.
func (s *BarStore) InsertBulk(_ context.Context, instrument string, tf domain.Timeframe, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if instrument == "" || tf == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey{instrument, tf}
	existing := s.data[key]

	seen := make(map[int64]struct{}, len(existing)+len(bars))
	for _, b := range existing {
		seen[b.Timestamp.UnixMilli()] = struct{}{}
	}
	for _, b := range bars {
		ts := b.Timestamp.UnixMilli()
		if _, dup := seen[ts]; dup {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	merged := append(append([]domain.Bar{}, existing...), bars...)
	sortBars(merged)
	s.data[key] = merged
	return nil
}

// GetRange retrieves bars within [start, end] (inclusive), ordered by
// timestamp ASC.
func (s *BarStore) GetRange(_ context.Context, instrument string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data[seriesKey{instrument, tf}] {
		if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			result = append(result, b)
		}
	}
	return result, nil
}

func sortBars(bars []domain.Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

var _ storage.BarStore = (*BarStore)(nil)
