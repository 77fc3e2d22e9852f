package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/service"
)

type CreateBookingRequest struct {
	TrainID     string   `json:"train_id" validate:"required"`
	SeatNumbers []string `json:"seats" validate:"required,min=1,dive,required"`
}

type StatusUpdateRequest struct {
	Status        *string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=pending completed refunded"`
}

type BookedSeatResponse struct {
	Number string  `json:"number"`
	Class  string  `json:"class"`
	Price  float64 `json:"price"`
}

type BookingResponse struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	TrainID          string               `json:"train_id"`
	Seats            []BookedSeatResponse `json:"seats"`
	TotalAmount      float64              `json:"total_amount"`
	Status           string               `json:"status"`
	PaymentStatus    string               `json:"payment_status"`
	PaymentReference string               `json:"payment_reference"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type PaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

type CreateBookingResponse struct {
	Booking BookingResponse `json:"booking"`
	Payment PaymentResponse `json:"payment"`
}

type BookingMessageResponse struct {
	Message string          `json:"message"`
	Booking BookingResponse `json:"booking"`
}

func toBookingResponse(b repository.Booking) BookingResponse {
	seats := make([]BookedSeatResponse, 0, len(b.Seats))
	for _, s := range b.Seats {
		seats = append(seats, BookedSeatResponse{Number: s.Number, Class: string(s.Class), Price: s.Price})
	}
	return BookingResponse{
		ID:               b.ID,
		UserID:           b.UserID,
		TrainID:          b.TrainID,
		Seats:            seats,
		TotalAmount:      b.TotalAmount,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toBookingList(bookings []repository.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	caller := identity(r)
	out, err := h.bookings.Create(r.Context(), service.CreateBookingInput{
		UserID:      caller.UserID,
		Email:       caller.Email,
		TrainID:     req.TrainID,
		SeatNumbers: req.SeatNumbers,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, CreateBookingResponse{
		Booking: toBookingResponse(out.Booking),
		Payment: PaymentResponse{
			AuthorizationURL: out.AuthorizationURL,
			Reference:        out.Booking.PaymentReference,
		},
	})
}

// VerifyPayment handles POST /bookings/verify-payment/{reference}.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.VerifyPayment(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BookingMessageResponse{
		Message: "payment verified and booking confirmed",
		Booking: toBookingResponse(booking),
	})
}

// MyBookings handles GET /bookings/my.
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListMine(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toBookingList(bookings))
}

// parseDay accepts RFC 3339 or YYYY-MM-DD. A bare end date covers its whole day.
func parseDay(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}

// ListBookings handles GET /bookings?status=&start_date=&end_date= for admins.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDay(q.Get("start_date"), false)
	if err != nil {
		h.badRequest(w, r, "start_date must be YYYY-MM-DD or RFC 3339")
		return
	}
	end, err := parseDay(q.Get("end_date"), true)
	if err != nil {
		h.badRequest(w, r, "end_date must be YYYY-MM-DD or RFC 3339")
		return
	}

	bookings, err := h.bookings.List(r.Context(), identity(r), service.ListFilter{
		Status:    repository.BookingStatus(q.Get("status")),
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toBookingList(bookings))
}

// GetBooking handles GET /bookings/{id}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toBookingResponse(booking))
}

// CancelBooking handles POST /bookings/{id}/cancel.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Cancel(r.Context(), service.CancelInput{
		BookingID: chi.URLParam(r, "id"),
		Requester: identity(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BookingMessageResponse{
		Message: "booking cancelled",
		Booking: toBookingResponse(booking),
	})
}

// UpdateBookingStatus handles PATCH /bookings/{id}/status for admins.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	var upd service.AdminStatusUpdate
	if req.Status != nil {
		s := repository.BookingStatus(*req.Status)
		upd.Status = &s
	}
	if req.PaymentStatus != nil {
		p := repository.PaymentStatus(*req.PaymentStatus)
		upd.PaymentStatus = &p
	}

	booking, err := h.bookings.AdminUpdateStatus(r.Context(), identity(r), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toBookingResponse(booking))
}
