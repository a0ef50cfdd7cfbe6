package repository

import (
	"context"
	"sync"
)

// MemoryBalanceStore keeps balances in process memory. Used by tests and by
// deployments that do not need the ledger to survive restarts.
type MemoryBalanceStore struct {
	mu     sync.RWMutex
	values map[string]int
}

func NewMemoryBalanceStore() *MemoryBalanceStore {
	return &MemoryBalanceStore{values: make(map[string]int)}
}

func (s *MemoryBalanceStore) Get(ctx context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryBalanceStore) Set(ctx context.Context, key string, value int) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

var _ BalanceStore = (*MemoryBalanceStore)(nil)
