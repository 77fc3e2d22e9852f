package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/railbook/internal/repository"
)

func TestSessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	id, err := repo.CreateSession(ctx, "u-1", time.Hour)
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	require.NoError(t, repo.RefreshSession(ctx, id, time.Hour))

	now = now.Add(50 * time.Minute)
	userID, err := repo.GetUserIDBySession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "u-1", userID)

	now = now.Add(2 * time.Hour)
	_, err = repo.GetUserIDBySession(ctx, id)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
	require.ErrorIs(t, repo.RefreshSession(ctx, id, time.Hour), repository.ErrSessionNotFound)
}

func TestProcessedStore(t *testing.T) {
	ctx := context.Background()
	store := NewProcessedStore()

	done, err := store.IsProcessed(ctx, "reminder:b-1")
	require.NoError(t, err)
	require.False(t, done)

	require.NoError(t, store.MarkProcessed(ctx, "reminder:b-1", time.Hour))
	require.NoError(t, store.MarkProcessed(ctx, "reminder:b-1", time.Hour))

	done, err = store.IsProcessed(ctx, "reminder:b-1")
	require.NoError(t, err)
	require.True(t, done)

	require.NoError(t, store.MarkProcessed(ctx, "short", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	done, err = store.IsProcessed(ctx, "short")
	require.NoError(t, err)
	require.False(t, done)
}
