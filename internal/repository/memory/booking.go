package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shestoi/railbook/internal/repository"
)

// BookingRepository keeps bookings in a map.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]repository.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]repository.Booking)}
}

func cloneBooking(b repository.Booking) repository.Booking {
	seats := make([]repository.BookedSeat, len(b.Seats))
	copy(seats, b.Seats)
	b.Seats = seats
	return b
}

func (r *BookingRepository) Create(ctx context.Context, booking repository.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return repository.ErrAlreadyExists
	}
	booking.Version = 1
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (repository.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return repository.Booking{}, repository.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) GetByPaymentReference(ctx context.Context, ref string) (repository.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref == "" {
		return repository.Booking{}, repository.ErrNotFound
	}
	for _, b := range r.bookings {
		if b.PaymentReference == ref {
			return cloneBooking(b), nil
		}
	}
	return repository.Booking{}, repository.ErrNotFound
}

func (r *BookingRepository) Update(ctx context.Context, booking repository.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != booking.Version {
		return repository.ErrConflict
	}
	booking.Version++
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]repository.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]repository.Booking, 0)
	for _, b := range r.bookings {
		if filter.Match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
