package service

import (
	"context"
	"errors"

	"github.com/shestoi/railbook/internal/repository"
)

// CheckAvailability resolves numbers on train. Missing or taken numbers are returned as unavailable.
func CheckAvailability(train repository.Train, numbers []string) (resolved []repository.Seat, unavailable []string) {
	return train.CheckAvailability(numbers)
}

// Inventory moves seats between free and held. Both directions are idempotent for the same
// holder, so a retried workflow step is safe.
type Inventory struct {
	trains repository.TrainRepository
}

func NewInventory(trains repository.TrainRepository) *Inventory {
	return &Inventory{trains: trains}
}

// LockSeats holds numbers for holder atomically. Fails with KindSeatsUnavailable listing the
// seats that are taken or unknown, and with KindNotFound for an unknown train.
func (i *Inventory) LockSeats(ctx context.Context, trainID, holder string, numbers []string) error {
	err := i.trains.LockSeats(ctx, trainID, holder, numbers)
	if err == nil {
		return nil
	}
	var seatsErr *repository.UnavailableSeatsError
	switch {
	case errors.As(err, &seatsErr):
		return seatsUnavailable(seatsErr.Seats)
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindNotFound, "train not found", err)
	}
	return newError(KindInternal, "lock seats", err)
}

// ReleaseSeats frees the seats holder holds among numbers.
func (i *Inventory) ReleaseSeats(ctx context.Context, trainID, holder string, numbers []string) error {
	err := i.trains.ReleaseSeats(ctx, trainID, holder, numbers)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "train not found", err)
	}
	return newError(KindInternal, "release seats", err)
}
