package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/repository"
)

const (
	fieldUserID     = "user_id"
	fieldCreatedAt  = "created_at"
	fieldLastSeenAt = "last_seen_at"
)

// SessionRepository keeps each session in a hash under session:<id> with a key TTL.
type SessionRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewSessionRepository(client redis.UniversalClient, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{client: client, logger: logger}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (r *SessionRepository) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	sessionID := uuid.NewString()
	key := sessionKey(sessionID)
	now := time.Now().UTC().Format(time.RFC3339)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fieldUserID, userID, fieldCreatedAt, now, fieldLastSeenAt, now)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("failed to create session", zap.Error(err), zap.String("user_id", userID))
		return "", fmt.Errorf("create session: %w", err)
	}

	r.logger.Debug("session created",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Duration("ttl", ttl),
	)
	return sessionID, nil
}

func (r *SessionRepository) GetUserIDBySession(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.client.HGet(ctx, sessionKey(sessionID), fieldUserID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	if userID == "" {
		return "", repository.ErrSessionNotFound
	}
	return userID, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RefreshSession never recreates a missing hash; HSET on an absent key would.
func (r *SessionRepository) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	key := sessionKey(sessionID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return repository.ErrSessionNotFound
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fieldLastSeenAt, time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}
