// Package event holds the messages that travel between the booking workflow
// and the notification dispatcher.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/railbook/internal/repository"
)

// Template names understood by the notification renderer.
const (
	TemplateBookingConfirmation = "booking_confirmation"
	TemplatePaymentConfirmation = "payment_confirmation"
	TemplateBookingCancellation = "booking_cancellation"
	TemplateJourneyReminder     = "journey_reminder"
)

// NotificationRequested is emitted whenever a user should be told about a booking.
// EventID doubles as the inbox key, so redelivery of the same event is harmless.
type NotificationRequested struct {
	EventID    string                      `json:"event_id"`
	OccurredAt time.Time                   `json:"occurred_at"`
	UserID     string                      `json:"user_id"`
	Type       repository.NotificationType `json:"type"`
	Template   string                      `json:"template"`
	BookingID  string                      `json:"booking_id,omitempty"`
	Data       map[string]string           `json:"data,omitempty"`
}

var eventNamespace = uuid.MustParse("6f1c7d7e-3c55-4a3b-9f61-5b8f0e6a2d41")

// New builds an event with a random id.
func New(userID string, typ repository.NotificationType, template, bookingID string, data map[string]string) NotificationRequested {
	return NotificationRequested{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
		Type:       typ,
		Template:   template,
		BookingID:  bookingID,
		Data:       data,
	}
}

// DeterministicID derives a stable event id from key, for events that may be produced twice.
func DeterministicID(key string) string {
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}
