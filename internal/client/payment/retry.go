package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/service"
)

// RetryingGateway retries calls that failed with service.ErrProviderUnavailable,
// backing off base, 2*base, 4*base and so on. Other failures return immediately.
type RetryingGateway struct {
	next        service.PaymentGateway
	logger      *zap.Logger
	maxAttempts int
	backoffBase time.Duration
	now         func() time.Time
}

func NewRetryingGateway(next service.PaymentGateway, logger *zap.Logger, maxAttempts int, backoffBase time.Duration) *RetryingGateway {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	return &RetryingGateway{next: next, logger: logger, maxAttempts: maxAttempts, backoffBase: backoffBase, now: time.Now}
}

// Initialize fixes the transaction reference before the first attempt. A retry after a timeout
// that did reach the provider then hits the same transaction instead of opening a second one.
func (g *RetryingGateway) Initialize(ctx context.Context, req service.InitializeRequest) (service.Authorization, error) {
	if req.Reference == "" {
		req.Reference = Reference(req.BookingID, g.now())
	}
	var out service.Authorization
	err := g.retry(ctx, "initialize", func() error {
		var err error
		out, err = g.next.Initialize(ctx, req)
		return err
	})
	return out, err
}

func (g *RetryingGateway) Verify(ctx context.Context, reference string) (service.Verification, error) {
	var out service.Verification
	err := g.retry(ctx, "verify", func() error {
		var err error
		out, err = g.next.Verify(ctx, reference)
		return err
	})
	return out, err
}

func (g *RetryingGateway) Refund(ctx context.Context, reference string) (service.Refund, error) {
	var out service.Refund
	err := g.retry(ctx, "refund", func() error {
		var err error
		out, err = g.next.Refund(ctx, reference)
		return err
	})
	return out, err
}

func (g *RetryingGateway) retry(ctx context.Context, op string, call func() error) error {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := g.backoffBase * time.Duration(1<<uint(attempt-2))
			g.logger.Warn("retrying payment gateway call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.maxAttempts),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = call()
		if lastErr == nil || !errors.Is(lastErr, service.ErrProviderUnavailable) {
			return lastErr
		}
	}
	return lastErr
}
