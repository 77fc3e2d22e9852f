package repository

import (
	"context"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=SessionRepository --dir=. --output=./mocks --outpkg=mocks

// SessionRepository stores login sessions with a TTL.
type SessionRepository interface {
	// CreateSession stores a new session for userID and returns its id.
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (sessionID string, err error)
	// GetUserIDBySession returns ErrSessionNotFound when the session is missing or expired.
	GetUserIDBySession(ctx context.Context, sessionID string) (userID string, err error)
	// DeleteSession removes the session. Missing sessions are not an error.
	DeleteSession(ctx context.Context, sessionID string) error
	// RefreshSession extends the TTL, ErrSessionNotFound when the session is gone.
	RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) error
}
