package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/repository"
)

const updateAttempts = 3

// SeatInput describes one seat in an admin train edit. A nil IsAvailable means available.
type SeatInput struct {
	Number      string
	Class       repository.SeatClass
	Price       float64
	IsAvailable *bool
}

// TrainInput is the full description of a train for create and update.
type TrainInput struct {
	Name          string
	From          string
	To            string
	DepartureTime time.Time
	ArrivalTime   time.Time
	BasePrice     float64
	Seats         []SeatInput
	Status        repository.TrainStatus
}

func (in TrainInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return validationError("name is required")
	case strings.TrimSpace(in.From) == "":
		return validationError("from is required")
	case strings.TrimSpace(in.To) == "":
		return validationError("to is required")
	case in.DepartureTime.IsZero() || in.ArrivalTime.IsZero():
		return validationError("departure and arrival times are required")
	case !in.ArrivalTime.After(in.DepartureTime):
		return validationError("arrival time must be after departure time")
	case in.BasePrice < 0:
		return validationError("base price must not be negative")
	case len(in.Seats) == 0:
		return validationError("at least one seat is required")
	case in.Status != "" && !in.Status.Valid():
		return validationError("invalid status %q", in.Status)
	}

	seen := make(map[string]struct{}, len(in.Seats))
	for _, s := range in.Seats {
		if strings.TrimSpace(s.Number) == "" {
			return validationError("seat number is required")
		}
		if _, dup := seen[s.Number]; dup {
			return validationError("seat %s listed twice", s.Number)
		}
		seen[s.Number] = struct{}{}
		if !s.Class.Valid() {
			return validationError("seat %s: invalid class %q", s.Number, s.Class)
		}
		if s.Price < 0 {
			return validationError("seat %s: price must not be negative", s.Number)
		}
	}
	return nil
}

// SearchInput is the public train search. Date is YYYY-MM-DD; Class "all" or empty disables the class filter.
type SearchInput struct {
	From     string
	To       string
	Date     string
	Class    string
	MinPrice *float64
	MaxPrice *float64
}

// TrainService manages the train catalogue.
type TrainService struct {
	trains repository.TrainRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewTrainService(trains repository.TrainRepository, logger *zap.Logger) *TrainService {
	return &TrainService{trains: trains, logger: logger, now: time.Now}
}

func (s *TrainService) Create(ctx context.Context, admin authctx.Identity, in TrainInput) (repository.Train, error) {
	if !admin.IsAdmin {
		return repository.Train{}, newError(KindForbidden, "admin access required", nil)
	}
	if err := in.validate(); err != nil {
		return repository.Train{}, err
	}

	now := s.now()
	train := repository.Train{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		From:          strings.TrimSpace(in.From),
		To:            strings.TrimSpace(in.To),
		DepartureTime: in.DepartureTime,
		ArrivalTime:   in.ArrivalTime,
		BasePrice:     in.BasePrice,
		Seats:         make([]repository.Seat, len(in.Seats)),
		Status:        in.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if train.Status == "" {
		train.Status = repository.TrainStatusScheduled
	}
	for i, seat := range in.Seats {
		train.Seats[i] = repository.Seat{
			Number:      seat.Number,
			Class:       seat.Class,
			Price:       seat.Price,
			IsAvailable: seat.IsAvailable == nil || *seat.IsAvailable,
		}
	}

	if err := s.trains.Create(ctx, train); err != nil {
		return repository.Train{}, newError(KindInternal, "save train", err)
	}
	train.Version = 1

	s.logger.Info("train created", zap.String("train_id", train.ID), zap.String("admin_id", admin.UserID))
	return train, nil
}

// Update replaces the train description. Seats held by bookings keep their hold and may not be
// removed. A concurrent seat hold makes the write retry against the fresh document.
func (s *TrainService) Update(ctx context.Context, admin authctx.Identity, id string, in TrainInput) (repository.Train, error) {
	if !admin.IsAdmin {
		return repository.Train{}, newError(KindForbidden, "admin access required", nil)
	}
	if err := in.validate(); err != nil {
		return repository.Train{}, err
	}

	for attempt := 0; ; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return repository.Train{}, err
		}

		updated, err := mergeTrain(current, in)
		if err != nil {
			return repository.Train{}, err
		}
		updated.UpdatedAt = s.now()

		err = s.trains.Update(ctx, updated)
		if err == nil {
			updated.Version++
			s.logger.Info("train updated", zap.String("train_id", id), zap.String("admin_id", admin.UserID))
			return updated, nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt+1 >= updateAttempts {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.Train{}, newError(KindNotFound, "train not found", err)
			}
			return repository.Train{}, newError(KindInternal, "save train", err)
		}
		s.logger.Debug("train changed during update, retrying", zap.String("train_id", id), zap.Int("attempt", attempt+1))
	}
}

func mergeTrain(current repository.Train, in TrainInput) (repository.Train, error) {
	held := make(map[string]repository.Seat)
	for _, seat := range current.Seats {
		if seat.HeldBy != "" {
			held[seat.Number] = seat
		}
	}

	seats := make([]repository.Seat, len(in.Seats))
	for i, seat := range in.Seats {
		seats[i] = repository.Seat{
			Number:      seat.Number,
			Class:       seat.Class,
			Price:       seat.Price,
			IsAvailable: seat.IsAvailable == nil || *seat.IsAvailable,
		}
		if h, ok := held[seat.Number]; ok {
			seats[i].IsAvailable = false
			seats[i].HeldBy = h.HeldBy
			delete(held, seat.Number)
		}
	}
	for number := range held {
		return repository.Train{}, validationError("seat %s is held by a booking and cannot be removed", number)
	}

	updated := current
	updated.Name = strings.TrimSpace(in.Name)
	updated.From = strings.TrimSpace(in.From)
	updated.To = strings.TrimSpace(in.To)
	updated.DepartureTime = in.DepartureTime
	updated.ArrivalTime = in.ArrivalTime
	updated.BasePrice = in.BasePrice
	updated.Seats = seats
	if in.Status != "" {
		updated.Status = in.Status
	}
	return updated, nil
}

// Delete removes a train that no booking holds seats on.
func (s *TrainService) Delete(ctx context.Context, admin authctx.Identity, id string) error {
	if !admin.IsAdmin {
		return newError(KindForbidden, "admin access required", nil)
	}
	train, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, seat := range train.Seats {
		if seat.HeldBy != "" {
			return validationError("train has active bookings")
		}
	}
	if err := s.trains.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "train not found", err)
		}
		return newError(KindInternal, "delete train", err)
	}
	s.logger.Info("train deleted", zap.String("train_id", id), zap.String("admin_id", admin.UserID))
	return nil
}

func (s *TrainService) Get(ctx context.Context, id string) (repository.Train, error) {
	train, err := s.trains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Train{}, newError(KindNotFound, "train not found", err)
		}
		return repository.Train{}, newError(KindInternal, "load train", err)
	}
	return train, nil
}

func (s *TrainService) Search(ctx context.Context, in SearchInput) ([]repository.Train, error) {
	filter := repository.TrainFilter{
		From:     strings.TrimSpace(in.From),
		To:       strings.TrimSpace(in.To),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
	}
	if in.Date != "" {
		day, err := time.Parse(time.DateOnly, in.Date)
		if err != nil {
			return nil, validationError("date must be YYYY-MM-DD")
		}
		filter.DepartsAfter = day
		filter.DepartsBefore = day.AddDate(0, 0, 1)
	}
	if in.Class != "" && in.Class != "all" {
		class := repository.SeatClass(in.Class)
		if !class.Valid() {
			return nil, validationError("invalid class %q", in.Class)
		}
		filter.Class = class
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return nil, validationError("minPrice must not exceed maxPrice")
	}

	trains, err := s.trains.List(ctx, filter)
	if err != nil {
		return nil, newError(KindInternal, "search trains", err)
	}
	return trains, nil
}
