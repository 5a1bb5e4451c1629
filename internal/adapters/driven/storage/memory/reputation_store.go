package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Ensure ReputationStore implements the interface.
var _ driven.ReputationStore = (*ReputationStore)(nil)

// ReputationStore is an in-memory implementation of driven.ReputationStore.
// Load and Save copy the map so callers never share it with the store.
type ReputationStore struct {
	mu      sync.RWMutex
	entries domain.ReputationMap
	saves   int
}

// NewReputationStore creates a new in-memory reputation store.
func NewReputationStore() *ReputationStore {
	return &ReputationStore{
		entries: make(domain.ReputationMap),
	}
}

// Load returns a copy of the stored map.
func (s *ReputationStore) Load(_ context.Context) (domain.ReputationMap, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.entries), nil, nil
}

// Save replaces the stored map.
func (s *ReputationStore) Save(_ context.Context, entries domain.ReputationMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = copyEntries(entries)
	s.saves++
	return nil
}

// Path returns the storage location.
func (s *ReputationStore) Path() string {
	return ":memory:"
}

// Saves returns how many times Save was called.
func (s *ReputationStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func copyEntries(in domain.ReputationMap) domain.ReputationMap {
	out := make(domain.ReputationMap, len(in))
	for id, e := range in {
		out[id] = e
	}
	return out
}
