package repository

import (
	"context"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=NotificationRepository --dir=. --output=./mocks --outpkg=mocks

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "BOOKING_CONFIRMATION"
	NotificationPaymentConfirmation NotificationType = "PAYMENT_CONFIRMATION"
	NotificationJourneyReminder     NotificationType = "JOURNEY_REMINDER"
	NotificationGeneral             NotificationType = "GENERAL"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationBookingConfirmation, NotificationPaymentConfirmation, NotificationJourneyReminder, NotificationGeneral:
		return true
	}
	return false
}

// Notification is an entry of the in-app log.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Read      bool
	Metadata  map[string]string
	CreatedAt time.Time
}

// Preferences are per-user delivery switches.
type Preferences struct {
	UserID           string
	Email            bool
	InApp            bool
	Push             bool
	JourneyReminders bool
	Promotional      bool
}

// DefaultPreferences is what a user gets on first read.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:           userID,
		Email:            true,
		InApp:            true,
		Push:             false,
		JourneyReminders: true,
		Promotional:      false,
	}
}

// PreferencesPatch changes only the non-nil fields.
type PreferencesPatch struct {
	Email            *bool
	InApp            *bool
	Push             *bool
	JourneyReminders *bool
	Promotional      *bool
}

// Apply returns p with the patch applied.
func (patch PreferencesPatch) Apply(p Preferences) Preferences {
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.InApp != nil {
		p.InApp = *patch.InApp
	}
	if patch.Push != nil {
		p.Push = *patch.Push
	}
	if patch.JourneyReminders != nil {
		p.JourneyReminders = *patch.JourneyReminders
	}
	if patch.Promotional != nil {
		p.Promotional = *patch.Promotional
	}
	return p
}

// InboxUpsertResult is the outcome of UpsertInboxPending.
type InboxUpsertResult struct {
	// AlreadyProcessed is set when the event was delivered before.
	AlreadyProcessed bool
	// CanProcess is set for a new event or a retry of a pending one.
	CanProcess bool
}

// NotificationRepository stores the notification log, preferences and the delivery inbox.
type NotificationRepository interface {
	// Insert ignores a notification whose id is already stored.
	Insert(ctx context.Context, n Notification) error
	// ListByUser returns at most limit notifications, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	// MarkRead returns ErrNotFound unless the notification exists and belongs to userID.
	MarkRead(ctx context.Context, userID, id string) (Notification, error)
	// MarkAllRead returns how many notifications changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// GetOrCreatePreferences inserts DefaultPreferences on first access.
	GetOrCreatePreferences(ctx context.Context, userID string) (Preferences, error)
	// UpdatePreferences applies patch on top of the stored (or default) preferences.
	UpdatePreferences(ctx context.Context, userID string, patch PreferencesPatch) (Preferences, error)

	// UpsertInboxPending creates a pending inbox row when absent. A sent row yields
	// AlreadyProcessed; a pending or failed row yields CanProcess.
	UpsertInboxPending(ctx context.Context, eventID, eventType, userID string, occurredAt time.Time) (*InboxUpsertResult, error)
	MarkInboxSent(ctx context.Context, eventID string) error
	// MarkInboxFailed records errString and keeps the row retryable.
	MarkInboxFailed(ctx context.Context, eventID, errString string) error
}
