package notification

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/repository"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer("https://rail.example/")
	require.NoError(t, err)

	data := map[string]string{
		"booking_id":     "b-1",
		"train_name":     "Lagos <Express>",
		"from":           "Lagos",
		"to":             "Ibadan",
		"departure_time": "2026-03-10T10:00:00Z",
		"seats":          "A1, A2",
		"total_amount":   "100.00",
	}

	tests := []struct {
		name        string
		template    string
		data        map[string]string
		wantSubject string
		wantMessage string
		wantHTML    []string
		notHTML     []string
	}{
		{
			name:        "booking confirmation",
			template:    event.TemplateBookingConfirmation,
			data:        data,
			wantSubject: "Booking Confirmation - Booking #b-1",
			wantMessage: "Your booking b-1 for seats A1, A2 is confirmed.",
			wantHTML:    []string{"Dear Ada", "Lagos &lt;Express&gt;", "https://rail.example/bookings/b-1"},
		},
		{
			name:        "cancellation with refund",
			template:    event.TemplateBookingCancellation,
			data:        withKey(data, "refunded", "true"),
			wantSubject: "Booking Cancellation - Booking #b-1",
			wantMessage: "Your booking b-1 has been cancelled. A refund of 100.00 is on its way.",
			wantHTML:    []string{"Refund Amount: 100.00", "5-7 business days"},
		},
		{
			name:        "cancellation without refund",
			template:    event.TemplateBookingCancellation,
			data:        withKey(data, "refunded", "false"),
			wantMessage: "Your booking b-1 has been cancelled.",
			wantSubject: "Booking Cancellation - Booking #b-1",
			notHTML:     []string{"Refund Amount"},
		},
		{
			name:        "journey reminder",
			template:    event.TemplateJourneyReminder,
			data:        data,
			wantSubject: "Journey Reminder - Lagos <Express>",
			wantMessage: "Your train Lagos <Express> from Lagos to Ibadan departs at 2026-03-10T10:00:00Z.",
			wantHTML:    []string{"departs soon"},
		},
		{
			name:        "missing data renders empty",
			template:    event.TemplatePaymentConfirmation,
			wantSubject: "Payment Received - Booking #",
			wantMessage: "We received  for booking .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.template, "Ada", tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.wantSubject, out.Subject)
			require.Equal(t, tt.wantMessage, out.Message)
			for _, s := range tt.wantHTML {
				require.Contains(t, out.HTML, s)
			}
			for _, s := range tt.notHTML {
				require.NotContains(t, out.HTML, s)
			}
		})
	}

	_, err = r.Render("promo", "Ada", nil)
	require.Error(t, err)
}

func withKey(m map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for key, val := range m {
		out[key] = val
	}
	out[k] = v
	return out
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(zap.NewNop(), SMTPConfig{Host: "smtp.example", Port: 587, Username: "mailer", Password: "secret", From: "noreply@rail.example"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		require.NotNil(t, a)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "ada@example.com", "Hello\r\nBcc: x@evil", "<p>hi</p>"))
	require.Equal(t, "smtp.example:587", gotAddr)
	require.Equal(t, "noreply@rail.example", gotFrom)
	require.Equal(t, []string{"ada@example.com"}, gotTo)
	require.Contains(t, string(gotMsg), "Subject: HelloBcc: x@evil\r\n")
	require.Contains(t, string(gotMsg), "Content-Type: text/html")
	require.True(t, strings.HasSuffix(string(gotMsg), "\r\n\r\n<p>hi</p>"))

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 try later") }
	require.Error(t, s.Send(context.Background(), "ada@example.com", "x", "y"))
}

type recordingHandler struct {
	mu       sync.Mutex
	failures int
	calls    []string
}

func (h *recordingHandler) Deliver(ctx context.Context, ev event.NotificationRequested) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, ev.EventID)
	if h.failures > 0 {
		h.failures--
		return errors.New("temporary")
	}
	return nil
}

func TestQueue(t *testing.T) {
	h := &recordingHandler{failures: 1}
	q := NewQueue(zap.NewNop(), h, 4, 3, time.Millisecond)
	q.Start()

	ev := event.New("user-1", repository.NotificationGeneral, event.TemplateBookingCancellation, "b-1", nil)
	require.NoError(t, q.Notify(context.Background(), ev))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))

	require.Equal(t, []string{ev.EventID, ev.EventID}, h.calls)
	require.ErrorIs(t, q.Notify(context.Background(), ev), ErrQueueClosed)
}

func TestQueue_Full(t *testing.T) {
	q := NewQueue(zap.NewNop(), &recordingHandler{}, 1, 1, 0)
	ev := event.New("user-1", repository.NotificationGeneral, event.TemplateBookingCancellation, "b-1", nil)

	require.NoError(t, q.Notify(context.Background(), ev))
	require.ErrorIs(t, q.Notify(context.Background(), ev), ErrQueueFull)
}
