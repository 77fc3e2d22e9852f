//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/repository"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(context.Background())) })

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestSessionRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(startRedis(t), zap.NewNop())

	id, err := repo.CreateSession(ctx, "u-1", time.Minute)
	require.NoError(t, err)

	userID, err := repo.GetUserIDBySession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "u-1", userID)

	require.NoError(t, repo.RefreshSession(ctx, id, time.Minute))
	require.NoError(t, repo.DeleteSession(ctx, id))

	_, err = repo.GetUserIDBySession(ctx, id)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
	require.ErrorIs(t, repo.RefreshSession(ctx, id, time.Minute), repository.ErrSessionNotFound)
}

func TestProcessedStore_Integration(t *testing.T) {
	ctx := context.Background()
	store := NewProcessedStore(startRedis(t))

	done, err := store.IsProcessed(ctx, "reminder:b-1")
	require.NoError(t, err)
	require.False(t, done)

	require.NoError(t, store.MarkProcessed(ctx, "reminder:b-1", time.Minute))
	done, err = store.IsProcessed(ctx, "reminder:b-1")
	require.NoError(t, err)
	require.True(t, done)
}
