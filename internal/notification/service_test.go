package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/notification"
	"github.com/shestoi/railbook/internal/notification/mocks"
	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/repository/memory"
)

type fixture struct {
	repo   *memory.NotificationRepository
	users  *memory.UserRepository
	sender *mocks.Sender
	svc    *notification.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	renderer, err := notification.NewRenderer("https://rail.example")
	require.NoError(t, err)

	f := &fixture{
		repo:   memory.NewNotificationRepository(),
		users:  memory.NewUserRepository(),
		sender: mocks.NewSender(t),
	}
	require.NoError(t, f.users.CreateUser(context.Background(), repository.User{ID: "user-1", Email: "ada@example.com", Name: "Ada"}))
	f.svc = notification.NewService(zap.NewNop(), f.repo, f.users, f.sender, renderer)
	return f
}

func confirmation() event.NotificationRequested {
	return event.New("user-1", repository.NotificationBookingConfirmation, event.TemplateBookingConfirmation, "b-1", map[string]string{
		"booking_id":   "b-1",
		"seats":        "A1",
		"total_amount": "50.00",
		"train_name":   "Lagos Express",
	})
}

func boolPtr(v bool) *bool { return &v }

func TestService_Deliver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := confirmation()

	f.sender.On("Send", mock.Anything, "ada@example.com", "Booking Confirmation - Booking #b-1", mock.MatchedBy(func(html string) bool {
		return len(html) > 0
	})).Return(nil).Once()

	require.NoError(t, f.svc.Deliver(ctx, ev))

	list, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, repository.NotificationBookingConfirmation, list[0].Type)
	require.Equal(t, "Booking confirmed", list[0].Title)
	require.False(t, list[0].Read)

	// Redelivery of the same event is a no-op.
	require.NoError(t, f.svc.Deliver(ctx, ev))
	list, err = f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestService_DeliverRespectsPreferences(t *testing.T) {
	tests := []struct {
		name       string
		patch      repository.PreferencesPatch
		ev         func() event.NotificationRequested
		wantEmail  bool
		wantStored int
	}{
		{
			name:       "defaults send email and store",
			ev:         confirmation,
			wantEmail:  true,
			wantStored: 1,
		},
		{
			name:       "email disabled",
			patch:      repository.PreferencesPatch{Email: boolPtr(false)},
			ev:         confirmation,
			wantStored: 1,
		},
		{
			name:      "in-app disabled",
			patch:     repository.PreferencesPatch{InApp: boolPtr(false)},
			ev:        confirmation,
			wantEmail: true,
		},
		{
			name:  "journey reminders disabled",
			patch: repository.PreferencesPatch{JourneyReminders: boolPtr(false)},
			ev: func() event.NotificationRequested {
				return event.New("user-1", repository.NotificationJourneyReminder, event.TemplateJourneyReminder, "b-1", map[string]string{"train_name": "Lagos Express"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			_, err := f.svc.UpdatePreferences(ctx, "user-1", tt.patch)
			require.NoError(t, err)
			if tt.wantEmail {
				f.sender.On("Send", mock.Anything, "ada@example.com", mock.Anything, mock.Anything).Return(nil).Once()
			}

			require.NoError(t, f.svc.Deliver(ctx, tt.ev()))

			list, err := f.svc.List(ctx, "user-1")
			require.NoError(t, err)
			require.Len(t, list, tt.wantStored)
		})
	}
}

func TestService_DeliverRetriesAfterSendFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := confirmation()

	f.sender.On("Send", mock.Anything, "ada@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	require.Error(t, f.svc.Deliver(ctx, ev))

	f.sender.On("Send", mock.Anything, "ada@example.com", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, f.svc.Deliver(ctx, ev))

	list, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestService_DeliverRejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ev *event.NotificationRequested)
	}{
		{name: "no event id", mutate: func(ev *event.NotificationRequested) { ev.EventID = "" }},
		{name: "no user", mutate: func(ev *event.NotificationRequested) { ev.UserID = "" }},
		{name: "unknown type", mutate: func(ev *event.NotificationRequested) { ev.Type = "SMS" }},
		{name: "unknown template", mutate: func(ev *event.NotificationRequested) { ev.Template = "promo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ev := confirmation()
			tt.mutate(&ev)

			err := f.svc.Deliver(context.Background(), ev)
			require.ErrorIs(t, err, notification.ErrInvalidEvent)
		})
	}
}

func TestService_ReadOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.UpdatePreferences(ctx, "user-1", repository.PreferencesPatch{Email: boolPtr(false)})
	require.NoError(t, err)

	first := confirmation()
	second := confirmation()
	require.NoError(t, f.svc.Deliver(ctx, first))
	require.NoError(t, f.svc.Deliver(ctx, second))

	n, err := f.svc.MarkAsRead(ctx, "user-1", first.EventID)
	require.NoError(t, err)
	require.True(t, n.Read)

	_, err = f.svc.MarkAsRead(ctx, "user-2", second.EventID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	changed, err := f.svc.MarkAllAsRead(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), changed)

	prefs, err := f.svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, prefs.Email)
	require.True(t, prefs.InApp)
	require.True(t, prefs.JourneyReminders)
	require.False(t, prefs.Promotional)

	fresh, err := f.svc.GetPreferences(ctx, "user-3")
	require.NoError(t, err)
	require.Equal(t, repository.DefaultPreferences("user-3"), fresh)
}
