package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

// Handler processes one notification event.
type Handler interface {
	Deliver(ctx context.Context, ev event.NotificationRequested) error
}

// Queue is an in-process notifier used when Kafka is not configured. Events are delivered by a
// single worker with bounded retries; whatever still fails is logged and dropped.
type Queue struct {
	logger      *zap.Logger
	handler     Handler
	maxAttempts int
	backoffBase time.Duration

	mu     sync.RWMutex
	closed bool
	events chan event.NotificationRequested
	done   chan struct{}
}

func NewQueue(logger *zap.Logger, handler Handler, size, maxAttempts int, backoffBase time.Duration) *Queue {
	if size <= 0 {
		size = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Queue{
		logger:      logger,
		handler:     handler,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		events:      make(chan event.NotificationRequested, size),
		done:        make(chan struct{}),
	}
}

// Notify enqueues ev without blocking.
func (q *Queue) Notify(ctx context.Context, ev event.NotificationRequested) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start runs the worker until Close drains the queue.
func (q *Queue) Start() {
	go func() {
		defer close(q.done)
		for ev := range q.events {
			q.handle(ev)
		}
	}()
}

func (q *Queue) handle(ev event.NotificationRequested) {
	var lastErr error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(q.backoffBase * time.Duration(1<<uint(attempt-2)))
		}
		lastErr = q.handler.Deliver(context.Background(), ev)
		if lastErr == nil || errors.Is(lastErr, ErrInvalidEvent) {
			break
		}
		q.logger.Warn("failed to deliver notification",
			zap.Error(lastErr),
			zap.String("event_id", ev.EventID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", q.maxAttempts),
		)
	}
	if lastErr != nil {
		q.logger.Error("dropping notification",
			zap.Error(lastErr),
			zap.String("event_id", ev.EventID),
			zap.String("user_id", ev.UserID),
		)
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
