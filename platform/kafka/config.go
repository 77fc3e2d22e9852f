package kafka

import "time"

// Config holds the Kafka settings of the notification pipeline.
type Config struct {
	// Brokers is a comma separated list, e.g. "localhost:19092" on the host or "kafka:9092" in docker.
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// NotificationTopic carries booking notification events from the workflow to the dispatcher.
	NotificationTopic string `env:"KAFKA_NOTIFICATION_TOPIC" envDefault:"booking.notifications"`
	// GroupID is the consumer group of the dispatcher.
	GroupID string `env:"KAFKA_NOTIFICATION_GROUP_ID" envDefault:"booking-notification-dispatcher"`
	// DLQTopic receives events that could not be delivered after all retries.
	DLQTopic string `env:"KAFKA_NOTIFICATION_DLQ_TOPIC" envDefault:"booking.notifications.dlq"`
	// RetryMaxAttempts bounds delivery attempts per event.
	RetryMaxAttempts int `env:"NOTIFICATION_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	// RetryBackoffBase is the first backoff; it doubles on every further attempt.
	RetryBackoffBase time.Duration `env:"NOTIFICATION_RETRY_BACKOFF_BASE" envDefault:"1s"`
}

// DefaultConfig returns defaults for the given APP_ENV ("local" or "docker").
// Environment variables loaded with LoadEnv override them.
func DefaultConfig(appEnv string) Config {
	brokers := []string{"localhost:19092"}
	if appEnv == "docker" {
		brokers = []string{"kafka:9092"}
	}
	return Config{
		Brokers:           brokers,
		NotificationTopic: "booking.notifications",
		GroupID:           "booking-notification-dispatcher",
		DLQTopic:          "booking.notifications.dlq",
		RetryMaxAttempts:  3,
		RetryBackoffBase:  time.Second,
	}
}
