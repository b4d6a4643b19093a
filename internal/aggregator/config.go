package aggregator

import (
	"os"
	"time"
)

// Config holds refresh loop settings.
type Config struct {
	// Interval is the pause between the end of one refresh and the start
	// of the next. Default: 10 seconds
	Interval time.Duration

	// FetchTimeout bounds a single fetch. Default: Interval
	FetchTimeout time.Duration
}

// DefaultConfig returns the default refresh configuration.
func DefaultConfig() Config {
	return Config{
		Interval:     10 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// ConfigFromEnv reads MONITOR_REFRESH_INTERVAL and MONITOR_FETCH_TIMEOUT,
// falling back to DefaultConfig for missing or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if d, err := time.ParseDuration(os.Getenv("MONITOR_REFRESH_INTERVAL")); err == nil && d > 0 {
		cfg.Interval = d
		cfg.FetchTimeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("MONITOR_FETCH_TIMEOUT")); err == nil && d > 0 {
		cfg.FetchTimeout = d
	}

	return cfg
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = c.Interval
	}
	return c
}
