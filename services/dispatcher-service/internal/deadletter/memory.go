package deadletter

import (
	"context"
	"sync"
)

// MemoryStore backs broker-only dev runs and tests. Same idempotency
// contract as the postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	seen    map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]bool)}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[e.EventID] {
		return nil
	}
	s.seen[e.EventID] = true
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	// Most recent first, like the postgres store.
	out := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}
