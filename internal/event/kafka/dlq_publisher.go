package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DLQPublisher writes undeliverable notification messages to the dead letter topic.
type DLQPublisher struct {
	logger *zap.Logger
	writer messageWriter
}

func NewDLQPublisher(logger *zap.Logger, brokers []string, topic string) *DLQPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &DLQPublisher{logger: logger, writer: writer}
}

// DLQMessage wraps the original message with the reason it was given up on.
type DLQMessage struct {
	OriginalTopic     string    `json:"original_topic"`
	OriginalPartition int       `json:"original_partition"`
	OriginalOffset    int64     `json:"original_offset"`
	OriginalKey       string    `json:"original_key"`
	OriginalValue     string    `json:"original_value"`
	ErrorMessage      string    `json:"error_message"`
	FailedAt          time.Time `json:"failed_at"`
	EventID           string    `json:"event_id,omitempty"`
	UserID            string    `json:"user_id,omitempty"`
	BookingID         string    `json:"booking_id,omitempty"`
}

func (p *DLQPublisher) Publish(ctx context.Context, original kafka.Message, originalErr error, eventID, userID, bookingID string) error {
	errorMsg := ""
	if originalErr != nil {
		errorMsg = originalErr.Error()
	}

	payload, err := json.Marshal(DLQMessage{
		OriginalTopic:     original.Topic,
		OriginalPartition: original.Partition,
		OriginalOffset:    original.Offset,
		OriginalKey:       string(original.Key),
		OriginalValue:     string(original.Value),
		ErrorMessage:      errorMsg,
		FailedAt:          time.Now().UTC(),
		EventID:           eventID,
		UserID:            userID,
		BookingID:         bookingID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	msg := kafka.Message{Key: original.Key, Value: payload, Headers: original.Headers}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish message to DLQ",
			zap.Error(err),
			zap.String("original_topic", original.Topic),
			zap.Int("original_partition", original.Partition),
			zap.Int64("original_offset", original.Offset),
		)
		return err
	}

	p.logger.Info("message published to DLQ",
		zap.String("original_topic", original.Topic),
		zap.Int("original_partition", original.Partition),
		zap.Int64("original_offset", original.Offset),
		zap.String("error_message", errorMsg),
	)
	return nil
}

func (p *DLQPublisher) Close() error {
	p.logger.Info("closing DLQ publisher")
	return p.writer.Close()
}
