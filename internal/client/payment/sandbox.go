package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/service"
)

type sandboxTransaction struct {
	bookingID string
	amount    float64
	status    service.VerificationStatus
	refundID  string
}

// SandboxGateway is an in-process gateway for local runs without Paystack credentials.
// Transactions succeed on verification unless declined first. Refunds are idempotent per reference.
type SandboxGateway struct {
	logger      *zap.Logger
	frontendURL string
	now         func() time.Time

	mu           sync.Mutex
	transactions map[string]*sandboxTransaction
}

func NewSandboxGateway(logger *zap.Logger, frontendURL string) *SandboxGateway {
	return &SandboxGateway{
		logger:       logger,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		now:          time.Now,
		transactions: make(map[string]*sandboxTransaction),
	}
}

func (g *SandboxGateway) Initialize(ctx context.Context, req service.InitializeRequest) (service.Authorization, error) {
	if req.Email == "" || req.Amount <= 0 {
		return service.Authorization{}, fmt.Errorf("initialize: email and positive amount required: %w", service.ErrProviderInvalidRequest)
	}

	reference := req.Reference
	if reference == "" {
		reference = Reference(req.BookingID, g.now())
	}

	g.mu.Lock()
	g.transactions[reference] = &sandboxTransaction{
		bookingID: req.BookingID,
		amount:    req.Amount,
		status:    service.VerificationSuccess,
	}
	g.mu.Unlock()

	g.logger.Info("sandbox payment initialized",
		zap.String("booking_id", req.BookingID),
		zap.String("reference", reference),
		zap.Float64("amount", req.Amount),
	)
	return service.Authorization{
		Reference:        reference,
		AuthorizationURL: fmt.Sprintf("%s/bookings/%s/payment-confirmation?reference=%s", g.frontendURL, req.BookingID, reference),
	}, nil
}

// Decline makes the next verification of reference report a failed payment.
func (g *SandboxGateway) Decline(reference string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx, ok := g.transactions[reference]
	if !ok {
		return service.ErrTransactionNotFound
	}
	tx.status = service.VerificationFailed
	return nil
}

func (g *SandboxGateway) Verify(ctx context.Context, reference string) (service.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx, ok := g.transactions[reference]
	if !ok {
		return service.Verification{}, fmt.Errorf("verify %s: %w", reference, service.ErrTransactionNotFound)
	}
	return service.Verification{Reference: reference, Status: tx.status, Amount: tx.amount}, nil
}

func (g *SandboxGateway) Refund(ctx context.Context, reference string) (service.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx, ok := g.transactions[reference]
	if !ok {
		return service.Refund{}, fmt.Errorf("refund %s: %w", reference, service.ErrTransactionNotFound)
	}
	if tx.status != service.VerificationSuccess {
		return service.Refund{}, fmt.Errorf("refund %s: payment not settled: %w", reference, service.ErrProviderInvalidRequest)
	}
	if tx.refundID == "" {
		tx.refundID = uuid.NewString()
		g.logger.Info("sandbox refund issued", zap.String("booking_id", tx.bookingID), zap.String("reference", reference))
	}
	return service.Refund{RefundID: tx.refundID}, nil
}
