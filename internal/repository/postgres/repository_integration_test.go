//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shestoi/railbook/internal/repository"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("railbook"),
		tcpostgres.WithUsername("railbook"),
		tcpostgres.WithPassword("railbook"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(context.Background())) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var migrateErr error
	for i := 0; i < 10; i++ {
		migrateErr = Migrate(ctx, dsn)
		if migrateErr == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, migrateErr, "Failed to run migrations")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRepositories_Integration(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)

	t.Run("users", func(t *testing.T) {
		repo := NewUserRepository(pool)
		user := repository.User{
			Email:        "Ada@Example.com",
			Name:         "Ada",
			PasswordHash: "hash",
			Role:         repository.RoleUser,
			CreatedAt:    time.Now(),
		}
		require.NoError(t, repo.CreateUser(ctx, user))
		require.ErrorIs(t, repo.CreateUser(ctx, user), repository.ErrAlreadyExists)

		got, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, "Ada", got.Name)

		byID, err := repo.GetByID(ctx, got.ID)
		require.NoError(t, err)
		require.Equal(t, got.Email, byID.Email)

		_, err = repo.GetByID(ctx, "not-a-uuid")
		require.ErrorIs(t, err, repository.ErrNotFound)

		byID.Name = "Ada L."
		byID.Email = "ada.l@example.com"
		byID.PhoneNumber = "+2348000000000"
		require.NoError(t, repo.UpdateUser(ctx, byID))
		updated, err := repo.GetByEmail(ctx, "ada.l@example.com")
		require.NoError(t, err)
		require.Equal(t, "+2348000000000", updated.PhoneNumber)

		require.NoError(t, repo.CreateUser(ctx, repository.User{Email: "grace@example.com", Name: "Grace", PasswordHash: "hash", Role: repository.RoleUser, CreatedAt: time.Now()}))
		updated.Email = "grace@example.com"
		require.ErrorIs(t, repo.UpdateUser(ctx, updated), repository.ErrAlreadyExists)
		require.ErrorIs(t, repo.UpdateUser(ctx, repository.User{ID: uuid.NewString(), Email: "x@example.com"}), repository.ErrNotFound)
	})

	t.Run("notifications", func(t *testing.T) {
		repo := NewNotificationRepository(pool)
		base := time.Now()
		var ids []string
		for i := 0; i < 3; i++ {
			id := uuid.NewString()
			ids = append(ids, id)
			require.NoError(t, repo.Insert(ctx, repository.Notification{
				ID:        id,
				UserID:    "u-1",
				Type:      repository.NotificationGeneral,
				Title:     fmt.Sprintf("n-%d", i),
				Message:   "hello",
				Metadata:  map[string]string{"booking_id": "b-1"},
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		list, err := repo.ListByUser(ctx, "u-1", 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "n-2", list[0].Title)
		require.Equal(t, "b-1", list[0].Metadata["booking_id"])

		_, err = repo.MarkRead(ctx, "u-2", ids[0])
		require.ErrorIs(t, err, repository.ErrNotFound)
		n, err := repo.MarkRead(ctx, "u-1", ids[0])
		require.NoError(t, err)
		require.True(t, n.Read)

		changed, err := repo.MarkAllRead(ctx, "u-1")
		require.NoError(t, err)
		require.Equal(t, int64(2), changed)
	})

	t.Run("preferences", func(t *testing.T) {
		repo := NewNotificationRepository(pool)

		p, err := repo.GetOrCreatePreferences(ctx, "u-1")
		require.NoError(t, err)
		require.Equal(t, repository.DefaultPreferences("u-1"), p)

		off := false
		p, err = repo.UpdatePreferences(ctx, "u-1", repository.PreferencesPatch{JourneyReminders: &off})
		require.NoError(t, err)
		require.False(t, p.JourneyReminders)
		require.True(t, p.Email)

		p, err = repo.GetOrCreatePreferences(ctx, "u-1")
		require.NoError(t, err)
		require.False(t, p.JourneyReminders)
	})

	t.Run("inbox", func(t *testing.T) {
		repo := NewNotificationRepository(pool)
		eventID := uuid.NewString()

		res, err := repo.UpsertInboxPending(ctx, eventID, "GENERAL", "u-1", time.Now())
		require.NoError(t, err)
		require.True(t, res.CanProcess)

		require.NoError(t, repo.MarkInboxFailed(ctx, eventID, "smtp down"))
		res, err = repo.UpsertInboxPending(ctx, eventID, "GENERAL", "u-1", time.Now())
		require.NoError(t, err)
		require.True(t, res.CanProcess)

		require.NoError(t, repo.MarkInboxSent(ctx, eventID))
		res, err = repo.UpsertInboxPending(ctx, eventID, "GENERAL", "u-1", time.Now())
		require.NoError(t, err)
		require.True(t, res.AlreadyProcessed)
	})
}
