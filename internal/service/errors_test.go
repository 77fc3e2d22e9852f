package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/railbook/internal/service"
)

func TestError(t *testing.T) {
	cause := errors.New("mongo down")
	err := fmt.Errorf("handler: %w", &service.Error{Kind: service.KindPartialFailure, Message: "half saved", Err: cause})

	require.ErrorIs(t, err, service.ErrPartialFailure)
	require.NotErrorIs(t, err, service.ErrNotFound)
	require.ErrorIs(t, err, cause)
	require.Equal(t, service.KindPartialFailure, service.KindOf(err))
	require.Equal(t, service.KindInternal, service.KindOf(cause))
	require.Equal(t, "handler: half saved: mongo down", err.Error())

	seats := &service.Error{Kind: service.KindSeatsUnavailable, Message: "seats unavailable", UnavailableSeats: []string{"Z9"}}
	require.Equal(t, "seats unavailable: Z9", seats.Error())
}
