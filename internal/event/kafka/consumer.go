package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
	"github.com/shestoi/railbook/internal/notification"
	platformobservability "github.com/shestoi/railbook/platform/observability"
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// deadLetters receives messages the consumer gives up on.
type deadLetters interface {
	Publish(ctx context.Context, original kafka.Message, originalErr error, eventID, userID, bookingID string) error
}

// NotificationConsumer feeds notification events to the dispatcher with at-least-once
// semantics: an offset is committed only after delivery or after the message reached the DLQ.
type NotificationConsumer struct {
	logger      *zap.Logger
	reader      messageReader
	handler     notification.Handler
	dlq         deadLetters
	topic       string
	groupID     string
	maxAttempts int
	backoffBase time.Duration
}

func NewNotificationConsumer(
	logger *zap.Logger,
	brokers []string,
	groupID, topic string,
	handler notification.Handler,
	dlq *DLQPublisher,
	maxAttempts int,
	backoffBase time.Duration,
) *NotificationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newNotificationConsumer(logger, reader, handler, dlq, topic, groupID, maxAttempts, backoffBase)
}

func newNotificationConsumer(
	logger *zap.Logger,
	reader messageReader,
	handler notification.Handler,
	dlq deadLetters,
	topic, groupID string,
	maxAttempts int,
	backoffBase time.Duration,
) *NotificationConsumer {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &NotificationConsumer{
		logger:      logger,
		reader:      reader,
		handler:     handler,
		dlq:         dlq,
		topic:       topic,
		groupID:     groupID,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Start consumes until ctx is cancelled.
func (c *NotificationConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer",
		zap.String("topic", c.topic),
		zap.String("group_id", c.groupID),
		zap.Int("max_retry_attempts", c.maxAttempts),
		zap.Duration("retry_backoff_base", c.backoffBase),
	)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("failed to fetch message from kafka", zap.Error(err))
			continue
		}

		if !c.processMessage(ctx, m) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("failed to commit message offset",
				zap.Error(err),
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
			continue
		}
		c.logger.Debug("message offset committed",
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
	}
}

// processMessage reports whether the offset may be committed.
func (c *NotificationConsumer) processMessage(ctx context.Context, m kafka.Message) bool {
	ev, err := parseEvent(m.Value)
	if err != nil {
		c.logger.Error("failed to parse notification event",
			zap.Error(err),
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		return c.toDLQ(m, err, ev)
	}

	msgCtx := platformobservability.ExtractKafka(ctx, &m)
	if err := c.handleWithRetry(msgCtx, ev); err != nil {
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("failed to deliver notification event, sending to DLQ",
			zap.Error(err),
			zap.String("event_id", ev.EventID),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		return c.toDLQ(m, err, ev)
	}
	return true
}

func (c *NotificationConsumer) toDLQ(m kafka.Message, cause error, ev event.NotificationRequested) bool {
	if err := c.dlq.Publish(context.Background(), m, cause, ev.EventID, ev.UserID, ev.BookingID); err != nil {
		c.logger.Error("failed to publish to DLQ, not committing", zap.Error(err))
		return false
	}
	return true
}

func (c *NotificationConsumer) handleWithRetry(ctx context.Context, ev event.NotificationRequested) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.backoffBase * time.Duration(1<<uint(attempt-2))
			c.logger.Info("retrying notification event",
				zap.String("event_id", ev.EventID),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = c.handler.Deliver(ctx, ev)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, notification.ErrInvalidEvent) {
			return lastErr
		}
		c.logger.Warn("failed to handle notification event",
			zap.Error(lastErr),
			zap.String("event_id", ev.EventID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
		)
	}
	return fmt.Errorf("exhausted %d attempts: %w", c.maxAttempts, lastErr)
}

func parseEvent(value []byte) (event.NotificationRequested, error) {
	var ev event.NotificationRequested
	if err := json.Unmarshal(value, &ev); err != nil {
		return event.NotificationRequested{}, &ParseError{Field: "", Message: "malformed json: " + err.Error()}
	}
	if ev.EventID == "" {
		return ev, &ParseError{Field: "event_id", Message: "event_id is required"}
	}
	if ev.UserID == "" {
		return ev, &ParseError{Field: "user_id", Message: "user_id is required"}
	}
	return ev, nil
}

func (c *NotificationConsumer) Close() error {
	c.logger.Info("closing kafka consumer")
	return c.reader.Close()
}
