package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ordstack/internal/order"
)

// MemoryOrderStore keeps records in a mutex-guarded map. Used by tests
// and ephemeral runs; it satisfies the same contract as the database
// backed store.
type MemoryOrderStore struct {
	mu      sync.RWMutex
	records map[int64]order.Record
}

var _ OrderStore = (*MemoryOrderStore)(nil)

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		records: make(map[int64]order.Record),
	}
}

func (s *MemoryOrderStore) Load(_ context.Context, id int64) (order.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrMissingData)
	}
	return copyRecord(rec), nil
}

func (s *MemoryOrderStore) Save(_ context.Context, id int64, rec order.Record, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; ok && !overwrite {
		return fmt.Errorf("order %d: %w", id, ErrExistingData)
	}
	s.records[id] = copyRecord(rec)
	return nil
}

func (s *MemoryOrderStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("order %d: %w", id, ErrMissingData)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryOrderStore) ListIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int64, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func copyRecord(rec order.Record) order.Record {
	out := make(order.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
