package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/client/payment"
	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/iam"
	"github.com/shestoi/railbook/internal/notification"
	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/repository/memory"
	"github.com/shestoi/railbook/internal/service"
	platformhealth "github.com/shestoi/railbook/platform/health/http"
)

// syncNotifier delivers straight into the notification service.
type syncNotifier struct{ svc *notification.Service }

func (n syncNotifier) Notify(ctx context.Context, ev event.NotificationRequested) error {
	return n.svc.Deliver(ctx, ev)
}

type testAPI struct {
	server   *httptest.Server
	bookings *service.BookingService
	users    *iam.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	userRepo := memory.NewUserRepository()
	users := iam.NewService(logger, userRepo, memory.NewSessionRepository(), time.Hour)

	renderer, err := notification.NewRenderer("http://frontend.test")
	require.NoError(t, err)
	notifications := notification.NewService(logger, memory.NewNotificationRepository(), userRepo, notification.NewNoOpSender(logger), renderer)

	trainRepo := memory.NewTrainRepository()
	trains := service.NewTrainService(trainRepo, logger)
	bookings := service.NewBookingService(
		trainRepo,
		memory.NewBookingRepository(),
		payment.NewSandboxGateway(logger, "http://frontend.test"),
		syncNotifier{svc: notifications},
		nil,
		logger,
		service.Options{},
	)

	handler := NewHandler(users, trains, bookings, notifications, logger)
	router := NewRouter(handler, users, map[string]platformhealth.Check{
		"memory": func(context.Context) error { return nil },
	}, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{server: srv, bookings: bookings, users: users}
}

func (a *testAPI) do(t *testing.T, method, path, sid string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.Header.Set("x-session-id", sid)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	var resp LoginResponse
	status := a.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: password}, &resp)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func (a *testAPI) register(t *testing.T, email, name string) string {
	t.Helper()
	status := a.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: email, Name: name, Password: "secret1"}, nil)
	require.Equal(t, http.StatusCreated, status)
	return a.login(t, email, "secret1")
}

func testTrainRequest() TrainRequest {
	departure := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return TrainRequest{
		Name:          "Coastal Express",
		From:          "Lagos",
		To:            "Ibadan",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(3 * time.Hour),
		BasePrice:     50,
		Seats: []SeatRequest{
			{Number: "A1", Class: "economy", Price: 50},
			{Number: "A2", Class: "economy", Price: 50},
			{Number: "B1", Class: "business", Price: 120},
		},
	}
}

func TestAPI_BookingLifecycle(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, api.users.EnsureAdmin(context.Background(), "admin@rail.example", "admin-pass"))
	adminSID := api.login(t, "admin@rail.example", "admin-pass")
	ada := api.register(t, "ada@example.com", "Ada")
	bob := api.register(t, "bob@example.com", "Bob")

	// Train management is admin only.
	require.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/trains", "", testTrainRequest(), nil))
	require.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/trains", ada, testTrainRequest(), nil))

	var train TrainResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/trains", adminSID, testTrainRequest(), &train))
	require.Len(t, train.Seats, 3)

	var found []TrainResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/trains?from=lag&class=business", "", nil, &found))
	require.Len(t, found, 1)

	// Ada books A1, Bob loses the race for it.
	var created CreateBookingResponse
	status := api.do(t, http.MethodPost, "/bookings", ada, CreateBookingRequest{TrainID: train.ID, SeatNumbers: []string{"A1"}}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "pending", created.Booking.Status)
	require.Equal(t, 50.0, created.Booking.TotalAmount)
	require.NotEmpty(t, created.Payment.Reference)
	require.NotEmpty(t, created.Payment.AuthorizationURL)

	var conflict ErrorResponse
	status = api.do(t, http.MethodPost, "/bookings", bob, CreateBookingRequest{TrainID: train.ID, SeatNumbers: []string{"A1", "A2"}}, &conflict)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, string(service.KindSeatsUnavailable), conflict.Code)
	require.Equal(t, []string{"A1"}, conflict.UnavailableSeats)

	var verified BookingMessageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/bookings/verify-payment/"+created.Payment.Reference, ada, nil, &verified))
	require.Equal(t, "confirmed", verified.Booking.Status)
	require.Equal(t, "completed", verified.Booking.PaymentStatus)

	var mine []BookingResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/bookings/my", ada, nil, &mine))
	require.Len(t, mine, 1)

	require.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/bookings/"+created.Booking.ID, bob, nil, nil))
	require.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/bookings", ada, nil, nil))

	var all []BookingResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/bookings?status=confirmed", adminSID, nil, &all))
	require.Len(t, all, 1)

	var cancelled BookingMessageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/bookings/"+created.Booking.ID+"/cancel", ada, nil, &cancelled))
	require.Equal(t, "cancelled", cancelled.Booking.Status)
	require.Equal(t, "refunded", cancelled.Booking.PaymentStatus)

	var again ErrorResponse
	require.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/bookings/"+created.Booking.ID+"/cancel", ada, nil, &again))
	require.Equal(t, string(service.KindAlreadyCancelled), again.Code)

	require.NoError(t, api.bookings.Drain(context.Background()))

	var inbox []NotificationResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/notifications", ada, nil, &inbox))
	require.Len(t, inbox, 3)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/notifications/"+inbox[0].ID+"/read", ada, nil, nil))
	require.Equal(t, http.StatusNotFound, api.do(t, http.MethodPut, "/notifications/"+inbox[1].ID+"/read", bob, nil, nil))
}

func TestAPI_AuthAndPreferences(t *testing.T) {
	api := newTestAPI(t)

	require.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "nope", Name: "Ada", Password: "secret1"}, nil))
	sid := api.register(t, "ada@example.com", "Ada")
	require.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "ada@example.com", Name: "Ada", Password: "secret1"}, nil))
	require.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "wrong-one"}, nil))

	var me UserResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/auth/me", sid, nil, &me))
	require.Equal(t, "ada@example.com", me.Email)
	require.Equal(t, "user", me.Role)

	var prefs PreferencesResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/notifications/preferences", sid, nil, &prefs))
	require.True(t, prefs.Email)
	require.True(t, prefs.JourneyReminders)

	off := false
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/notifications/preferences", sid, PreferencesRequest{Email: &off}, &prefs))
	require.False(t, prefs.Email)
	require.True(t, prefs.InApp)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/auth/logout", sid, nil, nil))
	require.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/auth/me", sid, nil, nil))
}

func TestAPI_Profile(t *testing.T) {
	api := newTestAPI(t)
	sid := api.register(t, "ada@example.com", "Ada")
	api.register(t, "grace@example.com", "Grace")

	require.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/users/profile", "", nil, nil))

	var profile UserResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/users/profile", sid, nil, &profile))
	require.Equal(t, "Ada", profile.Name)
	require.Empty(t, profile.PhoneNumber)

	name, phone := "Ada Lovelace", "+2348000000000"
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/users/profile", sid, ProfileRequest{Name: &name, PhoneNumber: &phone}, &profile))
	require.Equal(t, "Ada Lovelace", profile.Name)
	require.Equal(t, "+2348000000000", profile.PhoneNumber)
	require.Equal(t, "ada@example.com", profile.Email)

	taken, bad := "grace@example.com", "not-an-email"
	require.Equal(t, http.StatusConflict, api.do(t, http.MethodPut, "/users/profile", sid, ProfileRequest{Email: &taken}, nil))
	require.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/users/profile", sid, ProfileRequest{Email: &bad}, nil))

	email := "ada.l@example.com"
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/users/profile", sid, ProfileRequest{Email: &email}, &profile))
	require.Equal(t, "ada.l@example.com", profile.Email)
	require.Equal(t, "+2348000000000", profile.PhoneNumber)

	var me UserResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/auth/me", sid, nil, &me))
	require.Equal(t, profile, me)
	api.login(t, "ada.l@example.com", "secret1")
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t)
	var body map[string]any
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", "", nil, &body))
	require.Equal(t, "ok", body["status"])
}

func TestHandler_WriteError(t *testing.T) {
	h := &Handler{logger: zap.NewNop()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: &service.Error{Kind: service.KindNotFound}, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "forbidden", err: &service.Error{Kind: service.KindForbidden}, wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "past departure", err: &service.Error{Kind: service.KindPastDeparture}, wantStatus: http.StatusBadRequest, wantCode: "past_departure"},
		{name: "seats unavailable", err: &service.Error{Kind: service.KindSeatsUnavailable, UnavailableSeats: []string{"A1"}}, wantStatus: http.StatusConflict, wantCode: "seats_unavailable"},
		{name: "too late", err: &service.Error{Kind: service.KindTooLateToCancel}, wantStatus: http.StatusConflict, wantCode: "too_late_to_cancel"},
		{name: "payment failed", err: &service.Error{Kind: service.KindPaymentFailed}, wantStatus: http.StatusPaymentRequired, wantCode: "payment_failed"},
		{name: "refund failed", err: &service.Error{Kind: service.KindRefundFailed}, wantStatus: http.StatusBadGateway, wantCode: "refund_failed"},
		{name: "gateway unavailable", err: &service.Error{Kind: service.KindGatewayUnavailable}, wantStatus: http.StatusServiceUnavailable, wantCode: "gateway_unavailable"},
		{name: "partial failure", err: &service.Error{Kind: service.KindPartialFailure}, wantStatus: http.StatusInternalServerError, wantCode: "partial_failure"},
		{name: "internal kind", err: &service.Error{Kind: service.KindInternal}, wantStatus: http.StatusInternalServerError, wantCode: "internal"},
		{name: "expired session", err: iam.ErrSessionNotFoundOrExpired, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "missing notification", err: repository.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.wantCode, body.Code)
		})
	}
}
