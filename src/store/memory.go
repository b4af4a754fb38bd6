package store

import (
	"context"
	"sync"

	"jenkins-notify-bot/src/contracts"
)

// MemoryStore is an in-memory implementation of Store.
// Useful for testing and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]contracts.BuildStatus
	saves    int
}

// NewMemoryStore creates a store seeded with the given statuses.
func NewMemoryStore(seed ...contracts.BuildStatus) *MemoryStore {
	s := &MemoryStore{statuses: make(map[string]contracts.BuildStatus)}
	for _, st := range seed {
		s.statuses[st.JobName] = st
	}
	return s
}

// Load returns a copy of the stored statuses.
func (s *MemoryStore) Load(ctx context.Context) (map[string]contracts.BuildStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyStatuses(s.statuses), nil
}

// Save replaces the stored statuses.
func (s *MemoryStore) Save(ctx context.Context, statuses map[string]contracts.BuildStatus) error {
	if err := validateAll(statuses); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses = copyStatuses(statuses)
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saves
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
