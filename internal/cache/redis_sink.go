// Package cache mirrors published monitor states into Redis so that other
// replicas can serve the dashboard without reaching the data backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/statusboard/statusboard/internal/aggregator"
	"github.com/statusboard/statusboard/internal/monitor"
)

// DefaultKey is the Redis key holding the latest state.
const DefaultKey = "statusboard:monitors:state"

// ErrNoState is returned by Load when nothing has been published yet or the
// stored state has expired.
var ErrNoState = errors.New("no cached monitor state")

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// ConfigFromEnv reads REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_STATE_KEY
// and REDIS_STATE_TTL.
func ConfigFromEnv() Config {
	db, _ := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	ttl, err := time.ParseDuration(getEnvOrDefault("REDIS_STATE_TTL", "5m"))
	if err != nil {
		ttl = 5 * time.Minute
	}

	return Config{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		Key:      getEnvOrDefault("REDIS_STATE_KEY", DefaultKey),
		TTL:      ttl,
	}
}

// Enabled reports whether a Redis address is configured.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Document is the JSON form of a published state.
type Document struct {
	Generation  uint64            `json:"generation"`
	RefreshedAt time.Time         `json:"refreshedAt"`
	Stats       StatsDocument     `json:"stats"`
	Monitors    []MonitorDocument `json:"monitors"`
}

// StatsDocument is the JSON form of monitor.Stats.
type StatsDocument struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	Warning       int     `json:"warning"`
	Critical      int     `json:"critical"`
	AverageUptime float64 `json:"averageUptime"`
}

// MonitorDocument is the JSON form of monitor.Monitor.
type MonitorDocument struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Status           string    `json:"status"`
	LastUpdated      time.Time `json:"lastUpdated"`
	UptimePercentage float64   `json:"uptimePercentage"`
	ResponseTimeMs   float64   `json:"responseTimeMs"`
}

// NewDocument converts a state into its stored form.
func NewDocument(state *aggregator.State) Document {
	doc := Document{
		Generation:  state.Generation,
		RefreshedAt: state.RefreshedAt.UTC(),
		Stats: StatsDocument{
			Total:         state.Stats.Total,
			Active:        state.Stats.ActiveCount,
			Warning:       state.Stats.WarningCount,
			Critical:      state.Stats.CriticalCount,
			AverageUptime: state.Stats.AverageUptime,
		},
		Monitors: make([]MonitorDocument, 0, len(state.Snapshot)),
	}

	for _, m := range state.Snapshot {
		doc.Monitors = append(doc.Monitors, MonitorDocument{
			ID:               m.ID,
			Title:            m.Title,
			Description:      m.Description,
			Status:           string(m.Status),
			LastUpdated:      m.LastUpdated.UTC(),
			UptimePercentage: m.UptimePercentage,
			ResponseTimeMs:   m.ResponseTimeMs,
		})
	}

	return doc
}

// State converts the stored form back into a state.
func (d Document) State() *aggregator.State {
	snapshot := make([]monitor.Monitor, 0, len(d.Monitors))
	for _, m := range d.Monitors {
		snapshot = append(snapshot, monitor.Monitor{
			ID:               m.ID,
			Title:            m.Title,
			Description:      m.Description,
			Status:           monitor.Status(m.Status),
			LastUpdated:      m.LastUpdated,
			UptimePercentage: m.UptimePercentage,
			ResponseTimeMs:   m.ResponseTimeMs,
		})
	}

	return &aggregator.State{
		Snapshot: snapshot,
		Stats: monitor.Stats{
			Total:         d.Stats.Total,
			ActiveCount:   d.Stats.Active,
			WarningCount:  d.Stats.Warning,
			CriticalCount: d.Stats.Critical,
			AverageUptime: d.Stats.AverageUptime,
		},
		RefreshedAt: d.RefreshedAt,
		Generation:  d.Generation,
	}
}

// RedisSink stores each published state under a single key.
type RedisSink struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisSink creates a sink writing to key with the given TTL. A zero TTL
// keeps the value until it is overwritten.
func NewRedisSink(client redis.Cmdable, key string, ttl time.Duration) *RedisSink {
	if key == "" {
		key = DefaultKey
	}
	return &RedisSink{client: client, key: key, ttl: ttl}
}

// Publish implements aggregator.Sink.
func (s *RedisSink) Publish(ctx context.Context, state *aggregator.State) error {
	payload, err := json.Marshal(NewDocument(state))
	if err != nil {
		return fmt.Errorf("encoding monitor state: %w", err)
	}

	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing monitor state: %w", err)
	}

	return nil
}

// Load reads the most recently stored state.
func (s *RedisSink) Load(ctx context.Context) (*aggregator.State, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("loading monitor state: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding monitor state: %w", err)
	}

	return doc.State(), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
