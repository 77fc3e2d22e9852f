package service

import (
	"context"
	"errors"

	"github.com/shestoi/railbook/internal/event"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=PaymentGateway --dir=. --output=./mocks --outpkg=mocks

// Gateway failures. Only ErrProviderUnavailable is worth retrying.
var (
	ErrProviderUnavailable    = errors.New("payment provider unavailable")
	ErrProviderInvalidRequest = errors.New("payment provider rejected the request")
	ErrTransactionNotFound    = errors.New("payment transaction not found")
)

// InitializeRequest asks the gateway to open a payment for a booking.
type InitializeRequest struct {
	Amount    float64
	Email     string
	BookingID string
	UserID    string
	TrainName string
	// Reference is the transaction reference. Gateways build one from BookingID when it is empty.
	Reference string
}

// Authorization is where the payer completes the payment and the reference that identifies it.
type Authorization struct {
	Reference        string
	AuthorizationURL string
}

// VerificationStatus is the gateway's view of a payment.
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationFailed  VerificationStatus = "failed"
	VerificationPending VerificationStatus = "pending"
)

// Verification is the outcome of Verify. Amount is in major currency units, zero when unknown.
type Verification struct {
	Reference string
	Status    VerificationStatus
	Amount    float64
}

// Refund is the outcome of a refund request.
type Refund struct {
	RefundID string
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	// Initialize fails with ErrProviderUnavailable or ErrProviderInvalidRequest.
	Initialize(ctx context.Context, req InitializeRequest) (Authorization, error)
	Verify(ctx context.Context, reference string) (Verification, error)
	// Refund fails with ErrTransactionNotFound or ErrProviderUnavailable.
	Refund(ctx context.Context, reference string) (Refund, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Notifier --dir=. --output=./mocks --outpkg=mocks

// Notifier hands notification events to the dispatcher.
type Notifier interface {
	Notify(ctx context.Context, ev event.NotificationRequested) error
}

// MetricsRecorder records workflow outcomes. The result label is "ok" or an error kind.
type MetricsRecorder interface {
	RecordBookingCreated(ctx context.Context, amount float64, result string)
	RecordPaymentVerified(ctx context.Context, result string)
	RecordBookingCancelled(ctx context.Context, refunded bool, result string)
}

// NoopMetrics drops every measurement.
type NoopMetrics struct{}

func (NoopMetrics) RecordBookingCreated(context.Context, float64, string) {}

func (NoopMetrics) RecordPaymentVerified(context.Context, string) {}

func (NoopMetrics) RecordBookingCancelled(context.Context, bool, string) {}
