package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
// Used by backtests (isolated per run) and by tests.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade ID
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Insert adds a closed trade. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" || t.Status != domain.TradeStatusClosed || t.CloseTime == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.ID] = &cp
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// GetByCloseTimeRange retrieves trades with close time in [start, end),
// ordered by close time ASC, ID ASC.
func (s *TradeStore) GetByCloseTimeRange(_ context.Context, start, end time.Time) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		ct := *t.CloseTime
		if !ct.Before(start) && ct.Before(end) {
			cp := *t
			result = append(result, &cp)
		}
	}

	sortTrades(result)
	return result, nil
}

// GetAll retrieves the full history ordered by close time ASC, ID ASC.
func (s *TradeStore) GetAll(_ context.Context) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, 0, len(s.data))
	for _, t := range s.data {
		cp := *t
		result = append(result, &cp)
	}

	sortTrades(result)
	return result, nil
}

// sortTrades orders trades deterministically by close time ASC, ID ASC.
func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		ci, cj := *trades[i].CloseTime, *trades[j].CloseTime
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return trades[i].ID < trades[j].ID
	})
}

var _ storage.TradeStore = (*TradeStore)(nil)
