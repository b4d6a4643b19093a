package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/backend/resilience"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/database"
	"github.com/statusboard/statusboard/internal/monitor"
	"github.com/statusboard/statusboard/internal/monitor/postgrest"
)

// Data backend kinds selected by DATA_BACKEND.
const (
	backendPostgres  = "postgres"
	backendPostgREST = "postgrest"
	backendMemory    = "memory"
)

type backendConfig struct {
	Kind            string
	PostgRESTURL    string
	PostgRESTAPIKey string
}

func backendConfigFromEnv() backendConfig {
	return backendConfig{
		Kind:            getEnvOrDefault("DATA_BACKEND", backendMemory),
		PostgRESTURL:    os.Getenv("POSTGREST_URL"),
		PostgRESTAPIKey: os.Getenv("POSTGREST_API_KEY"),
	}
}

// dataBackend bundles the stores behind the monitor dashboard and the
// component catalog.
type dataBackend struct {
	Name string

	// Source feeds the refresh loop.
	Source monitor.Source
	// Monitors is nil when the backend is read-only.
	Monitors   monitor.Repository
	Components catalog.Repository

	pool *pgxpool.Pool
}

func (b *dataBackend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func openBackend(ctx context.Context, cfg backendConfig, registry *resilience.Registry, log zerolog.Logger) (*dataBackend, error) {
	breakerLog := log.With().Str("component", "resilience").Logger()

	switch cfg.Kind {
	case backendPostgres:
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		monitors := monitor.NewPostgresRepository(pool)
		return &dataBackend{
			Name:       backendPostgres,
			Source:     monitor.NewGuardedSource(monitors, guardConfig(backendPostgres, registry, breakerLog)),
			Monitors:   monitors,
			Components: catalog.NewPostgresRepository(pool),
			pool:       pool,
		}, nil

	case backendPostgREST:
		if cfg.PostgRESTURL == "" {
			return nil, fmt.Errorf("POSTGREST_URL is required for DATA_BACKEND=%s", backendPostgREST)
		}

		clientCfg := resilience.DefaultClientConfig(postgrest.BackendName)
		clientCfg.CircuitBreaker.OnStateChange = resilience.LogStateChanges(breakerLog)
		clientCfg.Registry = registry

		source := postgrest.NewClient(postgrest.Config{
			BaseURL:    cfg.PostgRESTURL,
			APIKey:     cfg.PostgRESTAPIKey,
			HTTPClient: resilience.NewClient(clientCfg),
		})
		log.Warn().Msg("component catalog is held in memory with the postgrest backend")

		return &dataBackend{
			Name:       backendPostgREST,
			Source:     source,
			Components: catalog.NewInMemoryRepository(),
		}, nil

	case backendMemory:
		monitors := monitor.NewInMemoryRepository(demoMonitors(time.Now())...)
		log.Warn().Msg("using in-memory data backend with demo monitors")

		return &dataBackend{
			Name:       backendMemory,
			Source:     monitors,
			Monitors:   monitors,
			Components: catalog.NewInMemoryRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown DATA_BACKEND %q", cfg.Kind)
	}
}

func guardConfig(name string, registry *resilience.Registry, log zerolog.Logger) resilience.GuardConfig {
	cbConfig := resilience.DefaultCircuitBreakerConfig(name)
	cbConfig.OnStateChange = resilience.LogStateChanges(log)

	return resilience.GuardConfig{
		Name:           name,
		Retry:          resilience.DefaultRetryConfig(),
		CircuitBreaker: &cbConfig,
		Registry:       registry,
	}
}

// demoMonitors seeds the in-memory backend for local development.
func demoMonitors(now time.Time) []monitor.Monitor {
	return []monitor.Monitor{
		{ID: 1, Title: "API Gateway", Description: "Public REST entrypoint", Status: monitor.StatusActive, LastUpdated: now, UptimePercentage: 99.98, ResponseTimeMs: 42},
		{ID: 2, Title: "Auth Service", Description: "Token issuance", Status: monitor.StatusActive, LastUpdated: now.Add(-3 * time.Minute), UptimePercentage: 99.9, ResponseTimeMs: 88},
		{ID: 3, Title: "Search Cluster", Description: "Full text search", Status: monitor.StatusWarning, LastUpdated: now.Add(-12 * time.Minute), UptimePercentage: 97.4, ResponseTimeMs: 310},
		{ID: 4, Title: "Payments", Description: "Card processing", Status: monitor.StatusCritical, LastUpdated: now.Add(-2 * time.Hour), UptimePercentage: 91.2, ResponseTimeMs: 1250},
	}
}
