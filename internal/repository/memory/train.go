package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shestoi/railbook/internal/repository"
)

// TrainRepository keeps trains in a map. One mutex serializes writers,
// so a seat check-and-hold is a single critical section.
type TrainRepository struct {
	mu     sync.RWMutex
	trains map[string]repository.Train
}

// NewTrainRepository returns a store seeded with initial.
func NewTrainRepository(initial ...repository.Train) *TrainRepository {
	r := &TrainRepository{trains: make(map[string]repository.Train)}
	for _, t := range initial {
		r.trains[t.ID] = cloneTrain(t)
	}
	return r
}

func cloneTrain(t repository.Train) repository.Train {
	seats := make([]repository.Seat, len(t.Seats))
	copy(seats, t.Seats)
	t.Seats = seats
	return t
}

func (r *TrainRepository) Create(ctx context.Context, train repository.Train) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trains[train.ID]; exists {
		return repository.ErrAlreadyExists
	}
	train.Version = 1
	r.trains[train.ID] = cloneTrain(train)
	return nil
}

func (r *TrainRepository) GetByID(ctx context.Context, id string) (repository.Train, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trains[id]
	if !ok {
		return repository.Train{}, repository.ErrNotFound
	}
	return cloneTrain(t), nil
}

func (r *TrainRepository) List(ctx context.Context, filter repository.TrainFilter) ([]repository.Train, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]repository.Train, 0, len(r.trains))
	for _, t := range r.trains {
		if filter.Match(t) {
			out = append(out, cloneTrain(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (r *TrainRepository) Update(ctx context.Context, train repository.Train) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.trains[train.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != train.Version {
		return repository.ErrConflict
	}
	train.Version++
	r.trains[train.ID] = cloneTrain(train)
	return nil
}

func (r *TrainRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trains[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.trains, id)
	return nil
}

func (r *TrainRepository) LockSeats(ctx context.Context, trainID, holder string, numbers []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trains[trainID]
	if !ok {
		return repository.ErrNotFound
	}
	t = cloneTrain(t)
	if unavailable := t.HoldSeats(holder, numbers); len(unavailable) > 0 {
		return &repository.UnavailableSeatsError{Seats: unavailable}
	}
	t.Version++
	t.UpdatedAt = time.Now()
	r.trains[trainID] = t
	return nil
}

func (r *TrainRepository) ReleaseSeats(ctx context.Context, trainID, holder string, numbers []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trains[trainID]
	if !ok {
		return repository.ErrNotFound
	}
	t = cloneTrain(t)
	if t.ReleaseSeats(holder, numbers) == 0 {
		return nil
	}
	t.Version++
	t.UpdatedAt = time.Now()
	r.trains[trainID] = t
	return nil
}
