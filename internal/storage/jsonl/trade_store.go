// Package jsonl implements storage.TradeStore as an append-only JSON-lines
// file. One line per closed trade keeps the record durable across restarts
// and inspectable with standard text tools.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage"
)

// TradeStore is a file-backed implementation of storage.TradeStore.
type TradeStore struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	index map[string]*domain.Trade // keyed by trade ID, loaded at open
}

// Open loads an existing trade file (creating it if absent) and returns a
// store ready for appends. The full history is indexed in memory; the file
// remains the source of truth.
func Open(path string) (*TradeStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade file: %w", err)
	}

	index, err := loadIndex(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &TradeStore{
		path:  path,
		file:  f,
		index: index,
	}, nil
}

// Close releases the underlying file.
func (s *TradeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Insert appends a closed trade. Returns ErrDuplicateKey if the ID exists.
// The line is flushed to disk before Insert returns, so the ledger can
// treat a successful insert as committed.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" || t.Status != domain.TradeStatusClosed || t.CloseTime == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	line, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade %s: %w", t.ID, err)
	}

	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append trade %s: %w", t.ID, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync trade file: %w", err)
	}

	cp := *t
	s.index[t.ID] = &cp
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.index[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// GetByCloseTimeRange retrieves trades with close time in [start, end),
// ordered by close time ASC, ID ASC.
func (s *TradeStore) GetByCloseTimeRange(_ context.Context, start, end time.Time) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Trade
	for _, t := range s.index {
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
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.Trade, 0, len(s.index))
	for _, t := range s.index {
		cp := *t
		result = append(result, &cp)
	}

	sortTrades(result)
	return result, nil
}

// loadIndex reads all existing lines into the in-memory index.
func loadIndex(f *os.File) (map[string]*domain.Trade, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek trade file: %w", err)
	}

	index := make(map[string]*domain.Trade)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var t domain.Trade
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("parse trade file line %d: %w", lineNo, err)
		}
		if t.ID == "" {
			return nil, fmt.Errorf("parse trade file line %d: %w", lineNo, storage.ErrInvalidInput)
		}
		index[t.ID] = &t
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trade file: %w", err)
	}

	return index, nil
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
