package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/event"
	platformobservability "github.com/shestoi/railbook/platform/observability"
)

// messageWriter is the part of *kafka.Writer the publishers use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationPublisher implements service.Notifier by writing events to Kafka.
// Messages are keyed by user id so one user's notifications stay ordered.
type NotificationPublisher struct {
	logger *zap.Logger
	writer messageWriter
	topic  string
}

func NewNotificationPublisher(logger *zap.Logger, brokers []string, topic string) *NotificationPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newNotificationPublisher(logger, writer, topic)
}

func newNotificationPublisher(logger *zap.Logger, writer messageWriter, topic string) *NotificationPublisher {
	return &NotificationPublisher{logger: logger, writer: writer, topic: topic}
}

func (p *NotificationPublisher) Notify(ctx context.Context, ev event.NotificationRequested) error {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal notification event",
			zap.Error(err),
			zap.String("event_id", ev.EventID),
		)
		return err
	}

	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: value,
	}
	platformobservability.InjectKafka(ctx, &msg)

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish notification event",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("event_id", ev.EventID),
			zap.String("user_id", ev.UserID),
		)
		return err
	}

	p.logger.Debug("notification event published",
		zap.String("topic", p.topic),
		zap.String("event_id", ev.EventID),
		zap.String("type", string(ev.Type)),
	)
	return nil
}

func (p *NotificationPublisher) Close() error {
	return p.writer.Close()
}
