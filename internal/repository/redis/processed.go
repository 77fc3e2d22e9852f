package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedStore records processed keys as plain Redis keys with a TTL.
type ProcessedStore struct {
	client redis.UniversalClient
	prefix string
}

func NewProcessedStore(client redis.UniversalClient) *ProcessedStore {
	return &ProcessedStore{client: client, prefix: "processed:"}
}

func (s *ProcessedStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (s *ProcessedStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return n > 0, nil
}
