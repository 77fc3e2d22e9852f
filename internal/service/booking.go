package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/repository"
)

// Options tunes the booking workflow.
type Options struct {
	// PaymentTimeout bounds every call to the payment gateway.
	PaymentTimeout time.Duration
	// NotifyTimeout bounds every background notification.
	NotifyTimeout time.Duration
	// CancellationWindow is how long before departure cancellation closes.
	CancellationWindow time.Duration
	// Now is the server clock.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PaymentTimeout <= 0 {
		o.PaymentTimeout = 10 * time.Second
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = 5 * time.Second
	}
	if o.CancellationWindow <= 0 {
		o.CancellationWindow = 2 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// BookingService runs the booking workflow: hold seats, open a payment, confirm on
// verification, and cancel with refund. It owns no state besides the stores.
type BookingService struct {
	trains    repository.TrainRepository
	bookings  repository.BookingRepository
	inventory *Inventory
	gateway   PaymentGateway
	notifier  Notifier
	metrics   MetricsRecorder
	logger    *zap.Logger
	opts      Options

	notifications sync.WaitGroup
}

func NewBookingService(
	trains repository.TrainRepository,
	bookings repository.BookingRepository,
	gateway PaymentGateway,
	notifier Notifier,
	metrics MetricsRecorder,
	logger *zap.Logger,
	opts Options,
) *BookingService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &BookingService{
		trains:    trains,
		bookings:  bookings,
		inventory: NewInventory(trains),
		gateway:   gateway,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

// CreateBookingInput is a request to book seats on one train.
type CreateBookingInput struct {
	UserID      string
	Email       string
	TrainID     string
	SeatNumbers []string
}

// CreateBookingOutput is the pending booking and where the payer completes the payment.
type CreateBookingOutput struct {
	Booking          repository.Booking
	AuthorizationURL string
}

// Create books the requested seats. The check and the hold happen before any payment call,
// and the hold is a conditional write, so only one of several racing requests for a seat wins.
// Any failure after the hold releases the seats again.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*CreateBookingOutput, error) {
	out, err := s.create(ctx, in)
	var amount float64
	if out != nil {
		amount = out.Booking.TotalAmount
	}
	s.metrics.RecordBookingCreated(ctx, amount, resultLabel(err))
	return out, err
}

func (s *BookingService) create(ctx context.Context, in CreateBookingInput) (*CreateBookingOutput, error) {
	if err := validateSeatNumbers(in.SeatNumbers); err != nil {
		return nil, err
	}

	train, err := s.trains.GetByID(ctx, in.TrainID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "train not found", err)
		}
		return nil, newError(KindInternal, "load train", err)
	}

	now := s.opts.Now()
	if !train.DepartureTime.After(now) {
		return nil, newError(KindPastDeparture, "train has already departed", nil)
	}

	resolved, unavailable := CheckAvailability(train, in.SeatNumbers)
	if len(unavailable) > 0 {
		return nil, seatsUnavailable(unavailable)
	}

	booking := repository.Booking{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		TrainID:       train.ID,
		Seats:         make([]repository.BookedSeat, len(resolved)),
		Status:        repository.BookingStatusPending,
		PaymentStatus: repository.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	for i, seat := range resolved {
		booking.Seats[i] = repository.BookedSeat{Number: seat.Number, Class: seat.Class, Price: seat.Price}
		booking.TotalAmount += seat.Price
	}
	booking.TotalAmount = roundAmount(booking.TotalAmount)

	logger := s.logger.With(
		zap.String("booking_id", booking.ID),
		zap.String("train_id", train.ID),
		zap.String("user_id", in.UserID),
	)

	if err := s.inventory.LockSeats(ctx, train.ID, booking.ID, in.SeatNumbers); err != nil {
		logger.Info("seat hold lost", zap.Error(err))
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		logger.Error("failed to persist pending booking", zap.Error(err))
		s.releaseDetached(ctx, logger, booking)
		return nil, newError(KindInternal, "save booking", err)
	}

	payCtx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	auth, err := s.gateway.Initialize(payCtx, InitializeRequest{
		Amount:    booking.TotalAmount,
		Email:     in.Email,
		BookingID: booking.ID,
		UserID:    in.UserID,
		TrainName: train.Name,
	})
	cancel()
	if err != nil {
		logger.Warn("payment initialization failed, abandoning booking", zap.Error(err))
		s.abandon(ctx, logger, booking)
		return nil, gatewayError("initialize payment", err)
	}

	saved, _, err := s.mutateBooking(ctx, booking, func(b *repository.Booking) (bool, error) {
		if b.Status != repository.BookingStatusPending {
			return false, newError(KindAlreadyCancelled, "booking was cancelled while the payment was opened", nil)
		}
		b.PaymentReference = auth.Reference
		b.UpdatedAt = s.opts.Now()
		return true, nil
	})
	if err != nil {
		logger.Error("failed to attach payment reference", zap.Error(err))
		s.abandon(ctx, logger, booking)
		return nil, err
	}
	booking = saved

	logger.Info("booking created",
		zap.Strings("seats", in.SeatNumbers),
		zap.Float64("total_amount", booking.TotalAmount),
		zap.String("payment_reference", booking.PaymentReference),
	)

	return &CreateBookingOutput{Booking: booking, AuthorizationURL: auth.AuthorizationURL}, nil
}

// abandon marks a booking that never got a usable payment as cancelled and frees its seats.
// A booking that moved on in the meantime is left alone.
func (s *BookingService) abandon(ctx context.Context, logger *zap.Logger, booking repository.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PaymentTimeout)
	defer cancel()

	abandoned, changed, err := s.mutateBooking(ctx, booking, func(b *repository.Booking) (bool, error) {
		if b.Status != repository.BookingStatusPending {
			return false, nil
		}
		b.Status = repository.BookingStatusCancelled
		b.UpdatedAt = s.opts.Now()
		return true, nil
	})
	if err != nil {
		logger.Error("failed to mark booking abandoned, seats stay held", zap.Error(err))
		return
	}
	if changed {
		s.releaseDetached(ctx, logger, abandoned)
	}
}

// mutateBooking applies change to booking and saves it under the version guard. When another
// writer got there first, the booking is reloaded and change runs again on the fresh copy.
// A change reporting false leaves the stored booking as it is.
func (s *BookingService) mutateBooking(
	ctx context.Context,
	booking repository.Booking,
	change func(b *repository.Booking) (bool, error),
) (repository.Booking, bool, error) {
	for attempt := 1; ; attempt++ {
		next := booking
		changed, err := change(&next)
		if err != nil {
			return repository.Booking{}, false, err
		}
		if !changed {
			return booking, false, nil
		}

		err = s.bookings.Update(ctx, next)
		if err == nil {
			next.Version++
			return next, true, nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= updateAttempts {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.Booking{}, false, newError(KindNotFound, "booking not found", err)
			}
			return repository.Booking{}, false, newError(KindInternal, "save booking", err)
		}
		s.logger.Debug("booking changed concurrently, retrying", zap.String("booking_id", booking.ID), zap.Int("attempt", attempt))

		booking, err = s.getBooking(ctx, booking.ID)
		if err != nil {
			return repository.Booking{}, false, err
		}
	}
}

func (s *BookingService) releaseDetached(ctx context.Context, logger *zap.Logger, booking repository.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PaymentTimeout)
	defer cancel()

	if err := s.inventory.ReleaseSeats(ctx, booking.TrainID, booking.ID, booking.SeatNumbers()); err != nil {
		logger.Error("failed to release held seats", zap.Error(err), zap.Strings("seats", booking.SeatNumbers()))
	}
}

// VerifyPayment confirms the booking behind reference once the gateway reports success.
// Verifying an already confirmed booking returns it unchanged.
func (s *BookingService) VerifyPayment(ctx context.Context, reference string) (repository.Booking, error) {
	b, err := s.verifyPayment(ctx, reference)
	s.metrics.RecordPaymentVerified(ctx, resultLabel(err))
	return b, err
}

func (s *BookingService) verifyPayment(ctx context.Context, reference string) (repository.Booking, error) {
	if reference == "" {
		return repository.Booking{}, validationError("payment reference is required")
	}

	payCtx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	verification, err := s.gateway.Verify(payCtx, reference)
	cancel()
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return repository.Booking{}, newError(KindNotFound, "payment not found", err)
		}
		return repository.Booking{}, gatewayError("verify payment", err)
	}

	logger := s.logger.With(zap.String("payment_reference", reference))

	if verification.Status != VerificationSuccess {
		logger.Info("payment not successful", zap.String("status", string(verification.Status)))
		return repository.Booking{}, newError(KindPaymentFailed, fmt.Sprintf("payment %s", verification.Status), nil)
	}

	booking, err := s.bookings.GetByPaymentReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Booking{}, newError(KindNotFound, "booking not found", err)
		}
		return repository.Booking{}, newError(KindInternal, "load booking", err)
	}
	logger = logger.With(zap.String("booking_id", booking.ID))

	switch booking.Status {
	case repository.BookingStatusConfirmed, repository.BookingStatusCompleted:
		return booking, nil
	case repository.BookingStatusCancelled:
		logger.Warn("payment succeeded for a cancelled booking")
		return repository.Booking{}, newError(KindAlreadyCancelled, "booking was cancelled before payment completed", nil)
	}

	if verification.Amount > 0 && math.Abs(verification.Amount-booking.TotalAmount) > 0.005 {
		logger.Warn("paid amount does not match booking total",
			zap.Float64("paid", verification.Amount),
			zap.Float64("total_amount", booking.TotalAmount))
		return repository.Booking{}, newError(KindPaymentFailed, "paid amount does not match booking total", nil)
	}

	booking, changed, err := s.mutateBooking(ctx, booking, func(b *repository.Booking) (bool, error) {
		switch b.Status {
		case repository.BookingStatusConfirmed, repository.BookingStatusCompleted:
			return false, nil
		case repository.BookingStatusCancelled:
			return false, newError(KindAlreadyCancelled, "booking was cancelled before payment completed", nil)
		}
		b.Status = repository.BookingStatusConfirmed
		b.PaymentStatus = repository.PaymentStatusCompleted
		b.UpdatedAt = s.opts.Now()
		return true, nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyCancelled) {
			logger.Warn("payment succeeded for a booking cancelled meanwhile")
		}
		return repository.Booking{}, err
	}
	if !changed {
		return booking, nil
	}

	logger.Info("booking confirmed")

	var train *repository.Train
	if t, err := s.trains.GetByID(ctx, booking.TrainID); err == nil {
		train = &t
	} else {
		logger.Warn("train details unavailable for notifications", zap.Error(err))
	}
	data := bookingData(booking, train)
	s.notifyAsync(event.New(booking.UserID, repository.NotificationBookingConfirmation,
		event.TemplateBookingConfirmation, booking.ID, data))
	s.notifyAsync(event.New(booking.UserID, repository.NotificationPaymentConfirmation,
		event.TemplatePaymentConfirmation, booking.ID, data))

	return booking, nil
}

// CancelInput names the booking and who asks for the cancellation.
type CancelInput struct {
	BookingID string
	Requester authctx.Identity
}

// Cancel refunds a paid booking and gives its seats back. A refund failure changes nothing.
// Completed bookings are final. When the refund, the booking and the seat release do not all
// persist, the result is KindPartialFailure.
func (s *BookingService) Cancel(ctx context.Context, in CancelInput) (repository.Booking, error) {
	b, refunded, err := s.cancel(ctx, in)
	s.metrics.RecordBookingCancelled(ctx, refunded, resultLabel(err))
	return b, err
}

func (s *BookingService) cancel(ctx context.Context, in CancelInput) (repository.Booking, bool, error) {
	booking, err := s.getBooking(ctx, in.BookingID)
	if err != nil {
		return repository.Booking{}, false, err
	}
	if !in.Requester.IsAdmin && booking.UserID != in.Requester.UserID {
		return repository.Booking{}, false, newError(KindForbidden, "not allowed to cancel this booking", nil)
	}
	if err := cancellable(booking); err != nil {
		return repository.Booking{}, false, err
	}

	train, err := s.trains.GetByID(ctx, booking.TrainID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Booking{}, false, newError(KindNotFound, "train not found", err)
		}
		return repository.Booking{}, false, newError(KindInternal, "load train", err)
	}
	if train.DepartureTime.Sub(s.opts.Now()) < s.opts.CancellationWindow {
		return repository.Booking{}, false, newError(KindTooLateToCancel,
			fmt.Sprintf("bookings can only be cancelled at least %s before departure", s.opts.CancellationWindow), nil)
	}

	logger := s.logger.With(
		zap.String("booking_id", booking.ID),
		zap.String("train_id", booking.TrainID),
		zap.String("requester_id", in.Requester.UserID),
	)

	// A booking paid while this request was in flight is refunded on the reloaded copy.
	// refunded keeps it to one refund per call.
	refunded := false
	// Persist even if the caller goes away once money has moved.
	persistCtx := context.WithoutCancel(ctx)
	booking, _, err = s.mutateBooking(persistCtx, booking, func(b *repository.Booking) (bool, error) {
		if err := cancellable(*b); err != nil {
			return false, err
		}
		if b.PaymentStatus == repository.PaymentStatusCompleted && !refunded {
			payCtx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
			refund, err := s.gateway.Refund(payCtx, b.PaymentReference)
			cancel()
			if err != nil {
				logger.Error("refund failed", zap.Error(err))
				return false, newError(KindRefundFailed, "refund failed", err)
			}
			refunded = true
			logger.Info("payment refunded", zap.String("refund_id", refund.RefundID))
		}
		if refunded {
			b.PaymentStatus = repository.PaymentStatusRefunded
		}
		b.Status = repository.BookingStatusCancelled
		b.UpdatedAt = s.opts.Now()
		return true, nil
	})
	if err != nil {
		if !refunded {
			return repository.Booking{}, false, err
		}
		logger.Error("payment refunded but booking not cancelled, reconciliation required", zap.Error(err))
		return repository.Booking{}, true, newError(KindPartialFailure,
			"payment was refunded but the booking was not updated", err)
	}

	// Seats are released only once the cancellation is stored, so a live booking never loses them.
	if err := s.inventory.ReleaseSeats(persistCtx, booking.TrainID, booking.ID, booking.SeatNumbers()); err != nil {
		logger.Error("booking cancelled but seats not released, reconciliation required",
			zap.Bool("refunded", refunded), zap.Error(err))
		return booking, refunded, newError(KindPartialFailure, "booking cancelled but seats were not released", err)
	}

	logger.Info("booking cancelled", zap.Bool("refunded", refunded))

	data := bookingData(booking, &train)
	data["refunded"] = strconv.FormatBool(refunded)
	s.notifyAsync(event.New(booking.UserID, repository.NotificationGeneral,
		event.TemplateBookingCancellation, booking.ID, data))

	return booking, refunded, nil
}

// AdminStatusUpdate carries the fields an admin overrides. Nil fields stay as they are.
type AdminStatusUpdate struct {
	Status        *repository.BookingStatus
	PaymentStatus *repository.PaymentStatus
}

// AdminUpdateStatus overrides booking fields directly and never refunds. Moving a booking to
// cancelled frees its seats; reviving a cancelled booking takes them again.
func (s *BookingService) AdminUpdateStatus(ctx context.Context, admin authctx.Identity, bookingID string, upd AdminStatusUpdate) (repository.Booking, error) {
	if !admin.IsAdmin {
		return repository.Booking{}, newError(KindForbidden, "admin access required", nil)
	}
	if upd.Status == nil && upd.PaymentStatus == nil {
		return repository.Booking{}, validationError("status or paymentStatus is required")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return repository.Booking{}, validationError("invalid status %q", *upd.Status)
	}
	if upd.PaymentStatus != nil && !upd.PaymentStatus.Valid() {
		return repository.Booking{}, validationError("invalid payment status %q", *upd.PaymentStatus)
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return repository.Booking{}, err
	}
	logger := s.logger.With(zap.String("booking_id", booking.ID), zap.String("admin_id", admin.UserID))

	var wasCancelled, nowCancelled, locked bool
	booking, _, err = s.mutateBooking(ctx, booking, func(b *repository.Booking) (bool, error) {
		wasCancelled = b.Status == repository.BookingStatusCancelled
		if upd.Status != nil {
			b.Status = *upd.Status
		}
		if upd.PaymentStatus != nil {
			b.PaymentStatus = *upd.PaymentStatus
		}
		b.UpdatedAt = s.opts.Now()
		nowCancelled = b.Status == repository.BookingStatusCancelled

		// Reviving takes the seats back before the booking becomes live again.
		if wasCancelled && !nowCancelled && !locked {
			if err := s.inventory.LockSeats(ctx, b.TrainID, b.ID, b.SeatNumbers()); err != nil {
				return false, err
			}
			locked = true
		}
		return true, nil
	})
	if err != nil {
		if locked {
			s.releaseIfCancelled(ctx, logger, bookingID)
		}
		return repository.Booking{}, err
	}

	if !wasCancelled && nowCancelled {
		if err := s.inventory.ReleaseSeats(context.WithoutCancel(ctx), booking.TrainID, booking.ID, booking.SeatNumbers()); err != nil {
			logger.Error("status overridden but seats not released", zap.Error(err))
			return booking, newError(KindPartialFailure, "booking cancelled but seats were not released", err)
		}
	}

	logger.Info("booking status overridden",
		zap.String("status", string(booking.Status)),
		zap.String("payment_status", string(booking.PaymentStatus)))
	return booking, nil
}

// Get returns a booking to its owner or an admin.
func (s *BookingService) Get(ctx context.Context, requester authctx.Identity, bookingID string) (repository.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return repository.Booking{}, err
	}
	if !requester.IsAdmin && booking.UserID != requester.UserID {
		return repository.Booking{}, newError(KindForbidden, "not allowed to view this booking", nil)
	}
	return booking, nil
}

// ListMine returns the requester's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, requester authctx.Identity) ([]repository.Booking, error) {
	out, err := s.bookings.List(ctx, repository.BookingFilter{UserID: requester.UserID})
	if err != nil {
		return nil, newError(KindInternal, "list bookings", err)
	}
	return out, nil
}

// ListFilter narrows the admin booking listing.
type ListFilter struct {
	Status    repository.BookingStatus
	StartDate time.Time
	EndDate   time.Time
}

// List returns all bookings matching filter, newest first. Admin only.
func (s *BookingService) List(ctx context.Context, admin authctx.Identity, filter ListFilter) ([]repository.Booking, error) {
	if !admin.IsAdmin {
		return nil, newError(KindForbidden, "admin access required", nil)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("invalid status %q", filter.Status)
	}
	out, err := s.bookings.List(ctx, repository.BookingFilter{
		Status:        filter.Status,
		CreatedAfter:  filter.StartDate,
		CreatedBefore: filter.EndDate,
	})
	if err != nil {
		return nil, newError(KindInternal, "list bookings", err)
	}
	return out, nil
}

// Drain waits for background notifications started so far, or until ctx is done.
func (s *BookingService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notifyAsync hands ev to the notifier on its own goroutine. Failures are logged only.
func (s *BookingService) notifyAsync(ev event.NotificationRequested) {
	if s.notifier == nil {
		return
	}
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notifier panicked", zap.Any("panic", r), zap.String("event_id", ev.EventID))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.Error(err),
				zap.String("event_id", ev.EventID),
				zap.String("type", string(ev.Type)),
				zap.String("user_id", ev.UserID))
		}
	}()
}

// releaseIfCancelled undoes a revive whose write failed. The seats go back only while the stored
// booking is still cancelled.
func (s *BookingService) releaseIfCancelled(ctx context.Context, logger *zap.Logger, bookingID string) {
	current, err := s.bookings.GetByID(context.WithoutCancel(ctx), bookingID)
	if err != nil {
		logger.Error("failed to reload booking after revive failure, seats stay held", zap.Error(err))
		return
	}
	if current.Status == repository.BookingStatusCancelled {
		s.releaseDetached(ctx, logger, current)
	}
}

// cancellable rejects bookings that have reached a terminal status.
func cancellable(b repository.Booking) error {
	switch b.Status {
	case repository.BookingStatusCancelled:
		return newError(KindAlreadyCancelled, "booking is already cancelled", nil)
	case repository.BookingStatusCompleted:
		return newError(KindAlreadyCompleted, "completed bookings cannot be cancelled", nil)
	}
	return nil
}

func (s *BookingService) getBooking(ctx context.Context, id string) (repository.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Booking{}, newError(KindNotFound, "booking not found", err)
		}
		return repository.Booking{}, newError(KindInternal, "load booking", err)
	}
	return booking, nil
}

func validateSeatNumbers(numbers []string) error {
	if len(numbers) == 0 {
		return validationError("at least one seat number is required")
	}
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		if n == "" {
			return validationError("seat number must not be empty")
		}
		if _, dup := seen[n]; dup {
			return validationError("seat %s requested twice", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func gatewayError(op string, err error) *Error {
	if errors.Is(err, ErrProviderInvalidRequest) {
		return newError(KindValidation, op+": request rejected by payment provider", err)
	}
	return newError(KindGatewayUnavailable, op+": payment provider unavailable", err)
}

func bookingData(b repository.Booking, train *repository.Train) map[string]string {
	data := map[string]string{
		"booking_id":   b.ID,
		"train_id":     b.TrainID,
		"seats":        strings.Join(b.SeatNumbers(), ", "),
		"total_amount": strconv.FormatFloat(b.TotalAmount, 'f', 2, 64),
		"reference":    b.PaymentReference,
	}
	if train != nil {
		data["train_name"] = train.Name
		data["from"] = train.From
		data["to"] = train.To
		data["departure_time"] = train.DepartureTime.UTC().Format(time.RFC3339)
		data["arrival_time"] = train.ArrivalTime.UTC().Format(time.RFC3339)
	}
	return data
}

func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}
