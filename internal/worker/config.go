// Package worker consumes monitor jobs from Pub/Sub and forwards them to the
// refresh loop.
package worker

import (
	"os"
	"strconv"
	"time"
)

// Job types carried in the job_type field of a message.
const (
	JobMonitorRefresh = "monitor_refresh"
	JobHealthCheck    = "health_check"
)

// Config holds Pub/Sub worker settings.
type Config struct {
	// ProjectID is the Google Cloud project of the subscription.
	ProjectID string

	// SubscriptionName is the subscription to receive jobs from.
	SubscriptionName string

	// TopicName is the topic that refresh requests are published to.
	TopicName string

	// MaxOutstandingMessages limits unacknowledged messages in flight.
	// Default: 10
	MaxOutstandingMessages int

	// HealthCheckTimeout bounds a health_check fetch.
	// Default: 10 seconds
	HealthCheckTimeout time.Duration
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		SubscriptionName:       "statusboard-jobs",
		TopicName:              "statusboard-jobs",
		MaxOutstandingMessages: 10,
		HealthCheckTimeout:     10 * time.Second,
	}
}

// ConfigFromEnv reads PUBSUB_PROJECT_ID, PUBSUB_SUBSCRIPTION, PUBSUB_TOPIC,
// PUBSUB_MAX_OUTSTANDING and HEALTH_CHECK_TIMEOUT.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ProjectID = os.Getenv("PUBSUB_PROJECT_ID")
	cfg.SubscriptionName = getEnvOrDefault("PUBSUB_SUBSCRIPTION", cfg.SubscriptionName)
	cfg.TopicName = getEnvOrDefault("PUBSUB_TOPIC", cfg.TopicName)

	if n, err := strconv.Atoi(os.Getenv("PUBSUB_MAX_OUTSTANDING")); err == nil && n > 0 {
		cfg.MaxOutstandingMessages = n
	}
	if d, err := time.ParseDuration(os.Getenv("HEALTH_CHECK_TIMEOUT")); err == nil && d > 0 {
		cfg.HealthCheckTimeout = d
	}

	return cfg
}

// Enabled reports whether a Pub/Sub project is configured.
func (c Config) Enabled() bool {
	return c.ProjectID != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
