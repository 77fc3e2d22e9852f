// Package worker runs periodic background jobs.
package worker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/service"
)

// ReminderWorker sends one JOURNEY_REMINDER per confirmed booking whose train departs within
// LeadTime. Sent reminders are remembered in the processed store until after departure.
type ReminderWorker struct {
	logger    *zap.Logger
	trains    repository.TrainRepository
	bookings  repository.BookingRepository
	notifier  service.Notifier
	processed repository.ProcessedStore
	interval  time.Duration
	leadTime  time.Duration
	now       func() time.Time
}

func NewReminderWorker(
	logger *zap.Logger,
	trains repository.TrainRepository,
	bookings repository.BookingRepository,
	notifier service.Notifier,
	processed repository.ProcessedStore,
	interval, leadTime time.Duration,
) *ReminderWorker {
	return &ReminderWorker{
		logger:    logger,
		trains:    trains,
		bookings:  bookings,
		notifier:  notifier,
		processed: processed,
		interval:  interval,
		leadTime:  leadTime,
		now:       time.Now,
	}
}

// Start runs a pass immediately and then every interval until ctx is done.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("journey reminder worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("lead_time", w.leadTime),
	)

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("journey reminder worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func reminderKey(bookingID string) string {
	return "reminder:" + bookingID
}

// RunOnce performs a single pass and returns how many reminders were sent.
func (w *ReminderWorker) RunOnce(ctx context.Context) int {
	now := w.now()
	trains, err := w.trains.List(ctx, repository.TrainFilter{
		DepartsAfter:  now,
		DepartsBefore: now.Add(w.leadTime),
	})
	if err != nil {
		w.logger.Error("failed to list departing trains", zap.Error(err))
		return 0
	}

	sent, failed := 0, 0
	for _, train := range trains {
		if train.Status == repository.TrainStatusCancelled {
			continue
		}
		bookings, err := w.bookings.List(ctx, repository.BookingFilter{
			TrainID: train.ID,
			Status:  repository.BookingStatusConfirmed,
		})
		if err != nil {
			w.logger.Error("failed to list bookings", zap.Error(err), zap.String("train_id", train.ID))
			failed++
			continue
		}

		for _, booking := range bookings {
			select {
			case <-ctx.Done():
				w.logger.Info("reminder pass interrupted by context cancellation")
				return sent
			default:
			}

			ok, err := w.remind(ctx, train, booking, now)
			if err != nil {
				w.logger.Error("failed to send journey reminder",
					zap.Error(err),
					zap.String("booking_id", booking.ID),
				)
				failed++
				continue
			}
			if ok {
				sent++
			}
		}
	}

	if sent > 0 || failed > 0 {
		w.logger.Info("journey reminder pass completed", zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return sent
}

func (w *ReminderWorker) remind(ctx context.Context, train repository.Train, booking repository.Booking, now time.Time) (bool, error) {
	key := reminderKey(booking.ID)
	done, err := w.processed.IsProcessed(ctx, key)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	ev := event.New(booking.UserID, repository.NotificationJourneyReminder, event.TemplateJourneyReminder, booking.ID, map[string]string{
		"booking_id":     booking.ID,
		"train_id":       train.ID,
		"train_name":     train.Name,
		"from":           train.From,
		"to":             train.To,
		"departure_time": train.DepartureTime.UTC().Format(time.RFC3339),
		"seats":          strings.Join(booking.SeatNumbers(), ", "),
		"total_amount":   strconv.FormatFloat(booking.TotalAmount, 'f', 2, 64),
	})
	ev.EventID = event.DeterministicID(key)

	if err := w.notifier.Notify(ctx, ev); err != nil {
		return false, err
	}

	ttl := train.DepartureTime.Sub(now) + 24*time.Hour
	if err := w.processed.MarkProcessed(ctx, key, ttl); err != nil {
		w.logger.Warn("failed to remember sent reminder", zap.Error(err), zap.String("booking_id", booking.ID))
	}
	return true, nil
}
