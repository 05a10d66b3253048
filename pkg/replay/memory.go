package replay

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-instance guards.
// Entries are purged lazily as they expire.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Consume implements Store.
func (s *MemoryStore) Consume(_ context.Context, paymentID, token string, retainFor time.Duration) (bool, error) {
	key := paymentID + "/" + token
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, k)
		}
	}

	if _, exists := s.seen[key]; exists {
		return false, nil
	}
	s.seen[key] = now.Add(retainFor)
	return true, nil
}
