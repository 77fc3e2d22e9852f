package memory

import (
	"context"
	"sync"
	"time"
)

// ProcessedStore keeps processed keys with their expiry. Expired keys are purged lazily on write.
type ProcessedStore struct {
	mu   sync.RWMutex
	keys map[string]time.Time
}

func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{keys: make(map[string]time.Time)}
}

func (s *ProcessedStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, expiresAt := range s.keys {
		if now.After(expiresAt) {
			delete(s.keys, k)
		}
	}
	s.keys[key] = now.Add(ttl)
	return nil
}

func (s *ProcessedStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.keys[key]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiresAt), nil
}
