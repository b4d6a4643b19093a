package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/aggregator"
	"github.com/statusboard/statusboard/internal/api"
	"github.com/statusboard/statusboard/internal/api/handler"
	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/auth"
	"github.com/statusboard/statusboard/internal/backend/resilience"
	"github.com/statusboard/statusboard/internal/cache"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/telemetry"
	"github.com/statusboard/statusboard/internal/worker"
)

func serve(ctx context.Context, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting statusboard")

	port := getEnvOrDefault("APP_PORT", "8080")
	env := getEnvOrDefault("APP_ENV", "development")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version, env)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Float64("sample_ratio", telemetryCfg.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	refreshMetrics, err := aggregator.NewMetrics()
	if err != nil {
		return err
	}

	// Data backend
	registry := resilience.NewRegistry()
	backend, err := openBackend(ctx, backendConfigFromEnv(), registry, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	// Shared state sink
	var sinks []aggregator.Sink
	var fallback handler.StateLoader
	redisCfg := cache.ConfigFromEnv()
	if redisCfg.Enabled() {
		redisClient, err := cache.NewClient(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		sink := cache.NewRedisSink(redisClient, redisCfg.Key, redisCfg.TTL)
		sinks = append(sinks, sink)
		fallback = sink
		log.Info().
			Str("addr", redisCfg.Addr).
			Str("key", redisCfg.Key).
			Dur("ttl", redisCfg.TTL).
			Msg("redis state sink enabled")
	}

	// Refresh loop
	refreshCfg := aggregator.ConfigFromEnv()
	agg := aggregator.New(aggregator.AggregatorConfig{
		Config:  refreshCfg,
		Source:  backend.Source,
		Logger:  log,
		Metrics: refreshMetrics,
		Sinks:   sinks,
	})
	if err := agg.Start(ctx); err != nil {
		return err
	}
	defer agg.Stop()

	// Pub/Sub refresh triggers
	workerCfg := worker.ConfigFromEnv()
	if workerCfg.Enabled() {
		dispatcher := worker.NewDispatcher(agg, workerCfg.HealthCheckTimeout, log)
		subscriber, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			Config:     workerCfg,
			Dispatcher: dispatcher,
			Logger:     log,
		})
		if err != nil {
			return err
		}
		defer subscriber.Close()

		go func() {
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Admin auth
	jwtCfg := auth.ConfigFromEnv()
	if jwtCfg.SigningKey == "" {
		if env == "production" {
			return auth.ErrMissingSigningKey
		}
		jwtCfg.SigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName + "-api",
		Metrics:           httpMetrics,
		Monitors:          agg,
		MonitorFallback:   fallback,
		MonitorRepository: backend.Monitors,
		Refresher:         agg,
		Catalog:           catalog.NewService(backend.Components),
		TokenValidator:    jwtService,
		Backends:          registry,
		RefreshInterval:   refreshCfg.Interval,
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("data_backend", backend.Name).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down server")

	// Stop polling before draining requests.
	agg.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
