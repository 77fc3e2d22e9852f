package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnavailableSeatsError(t *testing.T) {
	err := fmt.Errorf("lock seats: %w", &UnavailableSeatsError{Seats: []string{"A1", "Z9"}})

	require.ErrorIs(t, err, ErrSeatsUnavailable)

	var seatsErr *UnavailableSeatsError
	require.True(t, errors.As(err, &seatsErr))
	require.Equal(t, []string{"A1", "Z9"}, seatsErr.Seats)
	require.Contains(t, err.Error(), "A1, Z9")
}
