package repository

import (
	"context"
	"sync"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
)

// MemoryStateStore keeps collector state in process memory. State does not
// survive a restart; intended for development and tests.
type MemoryStateStore struct {
	mu        sync.RWMutex
	observed  map[string]time.Time
	fired     map[models.CadenceClass]time.Time
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		observed: make(map[string]time.Time),
		fired:    make(map[models.CadenceClass]time.Time),
	}
}

var _ domrepo.StateStore = (*MemoryStateStore)(nil)

func (s *MemoryStateStore) LastObserved(_ context.Context, symbol string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.observed[symbol]
	return ts, ok, nil
}

func (s *MemoryStateStore) SetLastObserved(_ context.Context, symbol string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed[symbol] = ts
	return nil
}

func (s *MemoryStateStore) LastFired(_ context.Context, class models.CadenceClass) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.fired[class]
	return ts, ok, nil
}

func (s *MemoryStateStore) SetLastFired(_ context.Context, class models.CadenceClass, instant time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired[class] = instant
	return nil
}

func (s *MemoryStateStore) Close() error { return nil }
