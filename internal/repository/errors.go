package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on a unique key collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when an optimistic update lost against a concurrent writer.
	ErrConflict = errors.New("concurrent modification")
	// ErrSeatsUnavailable is matched by *UnavailableSeatsError.
	ErrSeatsUnavailable = errors.New("seats unavailable")
	// ErrSessionNotFound is returned when a session is missing or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// UnavailableSeatsError lists the seat numbers that could not be held.
type UnavailableSeatsError struct {
	Seats []string
}

func (e *UnavailableSeatsError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

func (e *UnavailableSeatsError) Is(target error) bool {
	return target == ErrSeatsUnavailable
}
