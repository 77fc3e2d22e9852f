// Package notification delivers booking notifications to users and serves
// their in-app notification log and delivery preferences.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/repository"
)

// ListLimit caps the in-app log returned by List.
const ListLimit = 50

// ErrInvalidEvent marks events that can never be delivered. They are not retried.
var ErrInvalidEvent = errors.New("invalid notification event")

// UserDirectory resolves the recipient of a notification.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (repository.User, error)
}

// Service stores in-app notifications and sends email according to user preferences.
type Service struct {
	logger   *zap.Logger
	repo     repository.NotificationRepository
	users    UserDirectory
	sender   Sender
	renderer *Renderer
	now      func() time.Time
}

func NewService(
	logger *zap.Logger,
	repo repository.NotificationRepository,
	users UserDirectory,
	sender Sender,
	renderer *Renderer,
) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		users:    users,
		sender:   sender,
		renderer: renderer,
		now:      time.Now,
	}
}

func validate(ev event.NotificationRequested) error {
	switch {
	case ev.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case ev.UserID == "":
		return fmt.Errorf("%w: user_id is required", ErrInvalidEvent)
	case !ev.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	case ev.Template == "":
		return fmt.Errorf("%w: template is required", ErrInvalidEvent)
	}
	return nil
}

// Deliver handles one notification event at most once per event id. Delivery failures are
// recorded on the inbox row and returned so the caller can retry.
func (s *Service) Deliver(ctx context.Context, ev event.NotificationRequested) error {
	if err := validate(ev); err != nil {
		return err
	}

	logger := s.logger.With(
		zap.String("event_id", ev.EventID),
		zap.String("user_id", ev.UserID),
		zap.String("type", string(ev.Type)),
	)

	res, err := s.repo.UpsertInboxPending(ctx, ev.EventID, string(ev.Type), ev.UserID, ev.OccurredAt)
	if err != nil {
		logger.Error("failed to upsert inbox event", zap.Error(err))
		return err
	}
	if res.AlreadyProcessed || !res.CanProcess {
		logger.Info("event already processed (duplicate)")
		return nil
	}

	if err := s.deliver(ctx, ev, logger); err != nil {
		if markErr := s.repo.MarkInboxFailed(ctx, ev.EventID, err.Error()); markErr != nil {
			logger.Error("failed to mark inbox event failed", zap.Error(markErr))
		}
		return err
	}

	if err := s.repo.MarkInboxSent(ctx, ev.EventID); err != nil {
		logger.Error("failed to mark inbox event sent", zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, ev event.NotificationRequested, logger *zap.Logger) error {
	prefs, err := s.repo.GetOrCreatePreferences(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	if ev.Type == repository.NotificationJourneyReminder && !prefs.JourneyReminders {
		logger.Info("journey reminders disabled by user")
		return nil
	}

	user, err := s.users.GetByID(ctx, ev.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load recipient: %w", err)
	}

	content, err := s.renderer.Render(ev.Template, user.Name, ev.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if prefs.InApp {
		n := repository.Notification{
			ID:        ev.EventID,
			UserID:    ev.UserID,
			Type:      ev.Type,
			Title:     content.Title,
			Message:   content.Message,
			Metadata:  ev.Data,
			CreatedAt: s.now().UTC(),
		}
		if err := s.repo.Insert(ctx, n); err != nil {
			return fmt.Errorf("store notification: %w", err)
		}
	}

	if prefs.Email {
		if user.Email == "" {
			logger.Warn("recipient has no email address, skipping email")
			return nil
		}
		if err := s.sender.Send(ctx, user.Email, content.Subject, content.HTML); err != nil {
			logger.Error("failed to send email", zap.Error(err))
			return err
		}
	}

	logger.Info("notification delivered", zap.Bool("in_app", prefs.InApp), zap.Bool("email", prefs.Email))
	return nil
}

// List returns the newest notifications of a user.
func (s *Service) List(ctx context.Context, userID string) ([]repository.Notification, error) {
	return s.repo.ListByUser(ctx, userID, ListLimit)
}

// MarkAsRead returns repository.ErrNotFound for a notification of another user.
func (s *Service) MarkAsRead(ctx context.Context, userID, id string) (repository.Notification, error) {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) GetPreferences(ctx context.Context, userID string) (repository.Preferences, error) {
	return s.repo.GetOrCreatePreferences(ctx, userID)
}

func (s *Service) UpdatePreferences(ctx context.Context, userID string, patch repository.PreferencesPatch) (repository.Preferences, error) {
	return s.repo.UpdatePreferences(ctx, userID, patch)
}
