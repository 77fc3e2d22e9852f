package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/railbook/internal/repository"
)

func TestNotificationRepository_ListNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, repository.Notification{
			ID:        fmt.Sprintf("n-%d", i),
			UserID:    "u-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Insert(ctx, repository.Notification{ID: "other", UserID: "u-2", CreatedAt: base}))

	got, err := repo.ListByUser(ctx, "u-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "n-4", got[0].ID)
	require.Equal(t, "n-2", got[2].ID)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	require.NoError(t, repo.Insert(ctx, repository.Notification{ID: "n-1", UserID: "u-1"}))
	require.NoError(t, repo.Insert(ctx, repository.Notification{ID: "n-2", UserID: "u-1"}))

	_, err := repo.MarkRead(ctx, "u-2", "n-1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.MarkRead(ctx, "u-1", "n-1")
	require.NoError(t, err)
	require.True(t, n.Read)

	changed, err := repo.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), changed)
}

func TestNotificationRepository_Preferences(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()

	p, err := repo.GetOrCreatePreferences(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, repository.DefaultPreferences("u-1"), p)

	off := false
	p, err = repo.UpdatePreferences(ctx, "u-1", repository.PreferencesPatch{Email: &off})
	require.NoError(t, err)
	require.False(t, p.Email)
	require.True(t, p.InApp)
	require.True(t, p.JourneyReminders)
}

func TestNotificationRepository_Inbox(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()

	res, err := repo.UpsertInboxPending(ctx, "e-1", "GENERAL", "u-1", time.Now())
	require.NoError(t, err)
	require.True(t, res.CanProcess)

	require.NoError(t, repo.MarkInboxFailed(ctx, "e-1", "smtp down"))
	res, err = repo.UpsertInboxPending(ctx, "e-1", "GENERAL", "u-1", time.Now())
	require.NoError(t, err)
	require.True(t, res.CanProcess)

	require.NoError(t, repo.MarkInboxSent(ctx, "e-1"))
	res, err = repo.UpsertInboxPending(ctx, "e-1", "GENERAL", "u-1", time.Now())
	require.NoError(t, err)
	require.True(t, res.AlreadyProcessed)
	require.False(t, res.CanProcess)
}
