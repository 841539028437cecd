package challenge

import (
	"context"
	"sync"
	"time"

	"idverse/internal/credential/models"
)

// MemoryStore keeps challenges in a map. Expired entries linger until the
// next Purge.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

func (s *MemoryStore) Save(_ context.Context, c models.Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c.Token] = c.ExpiresAt
	return nil
}

func (s *MemoryStore) Take(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.entries[token]
	if !ok {
		return false, nil
	}
	delete(s.entries, token)
	return now.Before(expiresAt), nil
}

func (s *MemoryStore) Purge(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for token, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, token)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of stored challenges, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
