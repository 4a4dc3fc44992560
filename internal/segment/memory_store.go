package segment

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore creates an empty in-memory segment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (s *MemoryStore) Lookup(ctx context.Context, customerID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.CustomerID] = *profile
	return nil
}
