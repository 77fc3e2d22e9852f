package repository

import (
	"context"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=BookingRepository --dir=. --output=./mocks --outpkg=mocks

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the payment state of a booking.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusRefunded:
		return true
	}
	return false
}

// BookedSeat is the seat snapshot captured when the booking was made.
type BookedSeat struct {
	Number string
	Class  SeatClass
	Price  float64
}

// Booking is never deleted; cancellation is a status change.
type Booking struct {
	ID               string
	UserID           string
	TrainID          string
	Seats            []BookedSeat
	TotalAmount      float64
	Status           BookingStatus
	PaymentStatus    PaymentStatus
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	// Version is bumped on every write. Update only succeeds against the version it was read at.
	Version int64
}

// SeatNumbers returns the snapshot seat numbers in booking order.
func (b Booking) SeatNumbers() []string {
	out := make([]string, len(b.Seats))
	for i, s := range b.Seats {
		out[i] = s.Number
	}
	return out
}

// BookingFilter narrows booking listings. Zero values disable a criterion.
type BookingFilter struct {
	UserID        string
	TrainID       string
	Status        BookingStatus
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// Match reports whether b satisfies the filter. The creation window is [CreatedAfter, CreatedBefore].
func (f BookingFilter) Match(b Booking) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.TrainID != "" && b.TrainID != f.TrainID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.CreatedAfter.IsZero() && b.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && b.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	return true
}

// BookingRepository stores bookings.
type BookingRepository interface {
	// Create stores booking at version 1 and returns ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, booking Booking) error
	// GetByID returns ErrNotFound when the booking does not exist.
	GetByID(ctx context.Context, id string) (Booking, error)
	// GetByPaymentReference returns ErrNotFound when no booking carries ref.
	GetByPaymentReference(ctx context.Context, ref string) (Booking, error)
	// Update replaces the booking if its stored version equals booking.Version, else ErrConflict.
	// ErrNotFound when absent.
	Update(ctx context.Context, booking Booking) error
	// List returns matching bookings, newest first.
	List(ctx context.Context, filter BookingFilter) ([]Booking, error)
}
