package service

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies workflow failures so callers can render them.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindPastDeparture      Kind = "past_departure"
	KindSeatsUnavailable   Kind = "seats_unavailable"
	KindPaymentFailed      Kind = "payment_failed"
	KindAlreadyCancelled   Kind = "already_cancelled"
	KindAlreadyCompleted   Kind = "already_completed"
	KindTooLateToCancel    Kind = "too_late_to_cancel"
	KindRefundFailed       Kind = "refund_failed"
	KindPartialFailure     Kind = "partial_failure"
	KindGatewayUnavailable Kind = "gateway_unavailable"
	KindValidation         Kind = "validation_error"
	KindInternal           Kind = "internal"
)

// Error is returned by every service operation that fails for a reason the caller should see.
type Error struct {
	Kind    Kind
	Message string
	// UnavailableSeats is set for KindSeatsUnavailable.
	UnavailableSeats []string
	Err              error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.UnavailableSeats) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.UnavailableSeats, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrPastDeparture      = &Error{Kind: KindPastDeparture}
	ErrSeatsUnavailable   = &Error{Kind: KindSeatsUnavailable}
	ErrPaymentFailed      = &Error{Kind: KindPaymentFailed}
	ErrAlreadyCancelled   = &Error{Kind: KindAlreadyCancelled}
	ErrAlreadyCompleted   = &Error{Kind: KindAlreadyCompleted}
	ErrTooLateToCancel    = &Error{Kind: KindTooLateToCancel}
	ErrRefundFailed       = &Error{Kind: KindRefundFailed}
	ErrPartialFailure     = &Error{Kind: KindPartialFailure}
	ErrGatewayUnavailable = &Error{Kind: KindGatewayUnavailable}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInternal           = &Error{Kind: KindInternal}
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func seatsUnavailable(seats []string) *Error {
	return &Error{Kind: KindSeatsUnavailable, Message: "seats unavailable", UnavailableSeats: seats}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
