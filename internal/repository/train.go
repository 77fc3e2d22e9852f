package repository

import (
	"context"
	"strings"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=TrainRepository --dir=. --output=./mocks --outpkg=mocks

// SeatClass is the fare class of a seat.
type SeatClass string

const (
	SeatClassEconomy  SeatClass = "economy"
	SeatClassBusiness SeatClass = "business"
	SeatClassFirst    SeatClass = "first"
)

// Valid reports whether c is a known fare class.
func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassBusiness, SeatClassFirst:
		return true
	}
	return false
}

// TrainStatus is the operating status of a train.
type TrainStatus string

const (
	TrainStatusScheduled TrainStatus = "scheduled"
	TrainStatusCancelled TrainStatus = "cancelled"
	TrainStatusCompleted TrainStatus = "completed"
)

// Valid reports whether s is a known train status.
func (s TrainStatus) Valid() bool {
	switch s {
	case TrainStatusScheduled, TrainStatusCancelled, TrainStatusCompleted:
		return true
	}
	return false
}

// Seat is embedded in its train and has no identity outside it.
// HeldBy is the id of the booking holding the seat, empty when the seat is free.
type Seat struct {
	Number      string
	Class       SeatClass
	Price       float64
	IsAvailable bool
	HeldBy      string
}

// Train is a scheduled journey with its seat collection.
// Version is bumped on every write and guards admin edits against lost updates.
type Train struct {
	ID            string
	Name          string
	From          string
	To            string
	DepartureTime time.Time
	ArrivalTime   time.Time
	BasePrice     float64
	Seats         []Seat
	Status        TrainStatus
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Train) seatIndex(number string) int {
	for i := range t.Seats {
		if t.Seats[i].Number == number {
			return i
		}
	}
	return -1
}

// CheckAvailability resolves numbers against the seat collection. A number that is missing
// or marked unavailable goes to unavailable; the rest are returned in request order.
func (t Train) CheckAvailability(numbers []string) (resolved []Seat, unavailable []string) {
	for _, n := range numbers {
		i := t.seatIndex(n)
		if i < 0 || !t.Seats[i].IsAvailable {
			unavailable = append(unavailable, n)
			continue
		}
		resolved = append(resolved, t.Seats[i])
	}
	return resolved, unavailable
}

// HoldSeats marks numbers as held by holder. It is all-or-nothing: when any seat is missing
// or held by someone else, nothing changes and those numbers are returned.
// Seats already held by the same holder count as holdable.
func (t *Train) HoldSeats(holder string, numbers []string) []string {
	var unavailable []string
	for _, n := range numbers {
		i := t.seatIndex(n)
		if i < 0 {
			unavailable = append(unavailable, n)
			continue
		}
		s := t.Seats[i]
		if !s.IsAvailable && s.HeldBy != holder {
			unavailable = append(unavailable, n)
		}
	}
	if len(unavailable) > 0 {
		return unavailable
	}
	for _, n := range numbers {
		i := t.seatIndex(n)
		t.Seats[i].IsAvailable = false
		t.Seats[i].HeldBy = holder
	}
	return nil
}

// ReleaseSeats frees the seats among numbers that holder holds and reports how many changed.
// Seats that are free or held by another booking are left alone.
func (t *Train) ReleaseSeats(holder string, numbers []string) int {
	released := 0
	for _, n := range numbers {
		i := t.seatIndex(n)
		if i < 0 {
			continue
		}
		if t.Seats[i].IsAvailable || t.Seats[i].HeldBy != holder {
			continue
		}
		t.Seats[i].IsAvailable = true
		t.Seats[i].HeldBy = ""
		released++
	}
	return released
}

// TrainFilter narrows train searches. Zero values disable a criterion.
type TrainFilter struct {
	From          string
	To            string
	DepartsAfter  time.Time
	DepartsBefore time.Time
	Class         SeatClass
	MinPrice      *float64
	MaxPrice      *float64
}

// Match reports whether t satisfies the filter. From and To are case-insensitive substrings,
// the departure window is [DepartsAfter, DepartsBefore), and Class needs one free seat of that class.
func (f TrainFilter) Match(t Train) bool {
	if f.From != "" && !strings.Contains(strings.ToLower(t.From), strings.ToLower(f.From)) {
		return false
	}
	if f.To != "" && !strings.Contains(strings.ToLower(t.To), strings.ToLower(f.To)) {
		return false
	}
	if !f.DepartsAfter.IsZero() && t.DepartureTime.Before(f.DepartsAfter) {
		return false
	}
	if !f.DepartsBefore.IsZero() && !t.DepartureTime.Before(f.DepartsBefore) {
		return false
	}
	if f.MinPrice != nil && t.BasePrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && t.BasePrice > *f.MaxPrice {
		return false
	}
	if f.Class != "" {
		for _, s := range t.Seats {
			if s.Class == f.Class && s.IsAvailable {
				return true
			}
		}
		return false
	}
	return true
}

// TrainRepository stores trains and performs atomic seat transitions on them.
type TrainRepository interface {
	// Create returns ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, train Train) error
	// GetByID returns ErrNotFound when the train does not exist.
	GetByID(ctx context.Context, id string) (Train, error)
	// List returns matching trains ordered by departure time.
	List(ctx context.Context, filter TrainFilter) ([]Train, error)
	// Update replaces the train if its stored version equals train.Version, else ErrConflict.
	Update(ctx context.Context, train Train) error
	// Delete returns ErrNotFound when the train does not exist.
	Delete(ctx context.Context, id string) error

	// LockSeats holds numbers for holder in one conditional write. It fails with
	// *UnavailableSeatsError when any seat is missing or held by another holder,
	// and changes nothing in that case. Repeating a successful call is a no-op.
	LockSeats(ctx context.Context, trainID, holder string, numbers []string) error
	// ReleaseSeats frees the seats holder holds among numbers. Releasing free seats is a no-op.
	ReleaseSeats(ctx context.Context, trainID, holder string, numbers []string) error
}
