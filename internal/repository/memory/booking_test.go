package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/railbook/internal/repository"
)

func TestBookingRepository_UpdateUsesVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	require.NoError(t, repo.Create(ctx, repository.Booking{ID: "b-1", Status: repository.BookingStatusPending, Version: 7}))

	first, err := repo.GetByID(ctx, "b-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Version)
	second := first

	first.Status = repository.BookingStatusCancelled
	require.NoError(t, repo.Update(ctx, first))

	second.Status = repository.BookingStatusConfirmed
	require.ErrorIs(t, repo.Update(ctx, second), repository.ErrConflict)

	stored, err := repo.GetByID(ctx, "b-1")
	require.NoError(t, err)
	require.Equal(t, repository.BookingStatusCancelled, stored.Status)
	require.Equal(t, int64(2), stored.Version)

	require.ErrorIs(t, repo.Update(ctx, repository.Booking{ID: "missing"}), repository.ErrNotFound)
}
