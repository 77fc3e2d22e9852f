package kafka

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// LoadEnv overrides cfg with the KAFKA_* and NOTIFICATION_RETRY_* variables that are set.
func LoadEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse kafka env: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the settings the publisher and consumer cannot run without.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.NotificationTopic == "" {
		return fmt.Errorf("KAFKA_NOTIFICATION_TOPIC is required")
	}
	if c.GroupID == "" {
		return fmt.Errorf("KAFKA_NOTIFICATION_GROUP_ID is required")
	}
	if c.DLQTopic == "" {
		return fmt.Errorf("KAFKA_NOTIFICATION_DLQ_TOPIC is required")
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("NOTIFICATION_RETRY_MAX_ATTEMPTS must be positive")
	}
	if c.RetryBackoffBase <= 0 {
		return fmt.Errorf("NOTIFICATION_RETRY_BACKOFF_BASE must be positive")
	}
	return nil
}
