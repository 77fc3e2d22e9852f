package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/iam"
	"github.com/shestoi/railbook/internal/notification"
	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/service"
	platformobservability "github.com/shestoi/railbook/platform/observability"
)

// Handler holds the HTTP handlers of the booking API. It only translates between
// HTTP and the service layer.
type Handler struct {
	users         *iam.Service
	trains        *service.TrainService
	bookings      *service.BookingService
	notifications *notification.Service
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewHandler(
	users *iam.Service,
	trains *service.TrainService,
	bookings *service.BookingService,
	notifications *notification.Service,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:         users,
		trains:        trains,
		bookings:      bookings,
		notifications: notifications,
		validate:      validator.New(),
		logger:        logger,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code             string   `json:"code"`
	Message          string   `json:"message"`
	UnavailableSeats []string `json:"unavailable_seats,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) log(r *http.Request) *zap.Logger {
	return platformobservability.LoggerFromContext(r.Context(), h.logger)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log(r).Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Code: string(service.KindValidation), Message: message})
}

// decode reads a JSON body into dst and runs struct validation on it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.badRequest(w, r, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.badRequest(w, r, fmt.Sprintf("validation failed: %v", err))
		return false
	}
	return true
}

func identity(r *http.Request) authctx.Identity {
	id, _ := authctx.IdentityFromContext(r.Context())
	return id
}

var kindStatus = map[service.Kind]int{
	service.KindNotFound:           http.StatusNotFound,
	service.KindForbidden:          http.StatusForbidden,
	service.KindPastDeparture:      http.StatusBadRequest,
	service.KindValidation:         http.StatusBadRequest,
	service.KindSeatsUnavailable:   http.StatusConflict,
	service.KindAlreadyCancelled:   http.StatusConflict,
	service.KindAlreadyCompleted:   http.StatusConflict,
	service.KindTooLateToCancel:    http.StatusConflict,
	service.KindPaymentFailed:      http.StatusPaymentRequired,
	service.KindRefundFailed:       http.StatusBadGateway,
	service.KindGatewayUnavailable: http.StatusServiceUnavailable,
	service.KindPartialFailure:     http.StatusInternalServerError,
}

// writeError maps service, identity and repository errors to a status code and body.
// Anything unrecognised is logged and reported as a bare 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status, ok := kindStatus[svcErr.Kind]
		if ok {
			if status >= http.StatusInternalServerError {
				h.log(r).Error("request failed", zap.Error(err), zap.String("kind", string(svcErr.Kind)))
			}
			h.writeJSON(w, r, status, ErrorResponse{
				Code:             string(svcErr.Kind),
				Message:          svcErr.Error(),
				UnavailableSeats: svcErr.UnavailableSeats,
			})
			return
		}
	}

	switch {
	case errors.Is(err, iam.ErrSessionNotFoundOrExpired), errors.Is(err, iam.ErrInvalidCredentials):
		h.writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: err.Error()})
		return
	case errors.Is(err, iam.ErrEmailTaken):
		h.writeJSON(w, r, http.StatusConflict, ErrorResponse{Code: "email_taken", Message: err.Error()})
		return
	case errors.Is(err, iam.ErrInvalidInput):
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Code: string(service.KindValidation), Message: err.Error()})
		return
	case errors.Is(err, iam.ErrUserNotFound), errors.Is(err, repository.ErrNotFound):
		h.writeJSON(w, r, http.StatusNotFound, ErrorResponse{Code: string(service.KindNotFound), Message: "not found"})
		return
	}

	h.log(r).Error("request failed", zap.Error(err))
	h.writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Code: string(service.KindInternal), Message: "internal server error"})
}
