package repository

import (
	"context"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=ProcessedStore --dir=. --output=./mocks --outpkg=mocks

// ProcessedStore remembers keys of work already done for a limited time.
type ProcessedStore interface {
	// MarkProcessed records key for ttl. Marking twice is fine.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) error
	// IsProcessed reports whether key was marked and has not expired.
	IsProcessed(ctx context.Context, key string) (bool, error)
}
