// Package api provides the HTTP API for statusboard.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/handler"
	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/backend/resilience"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/monitor"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Monitors is the refresh loop serving the monitor dashboard.
	Monitors handler.RefreshMonitor
	// MonitorFallback serves a shared state before Monitors has one. Optional.
	MonitorFallback handler.StateLoader
	// MonitorRepository enables the admin monitor endpoints. Optional.
	MonitorRepository monitor.Repository
	// Refresher is triggered after admin monitor writes.
	Refresher handler.Refresher

	Catalog        *catalog.Service
	TokenValidator middleware.TokenValidator
	Backends       *resilience.Registry

	// RefreshInterval sizes Retry-After and the staleness threshold.
	RefreshInterval time.Duration
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "statusboard-api"
	}

	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = 10 * time.Second
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Refresh:   cfg.Monitors,
		Registry:  cfg.Backends,
		// Three missed refreshes before the snapshot counts as stale.
		StaleAfter: 3 * refreshInterval,
	})
	monitorsHandler := handler.NewMonitorsHandler(handler.MonitorsConfig{
		State:      cfg.Monitors,
		Fallback:   cfg.MonitorFallback,
		Repository: cfg.MonitorRepository,
		Refresher:  cfg.Refresher,
		RetryAfter: refreshInterval,
		Logger:     cfg.Logger,
	})

	readRateLimit := middleware.RateLimitByIP(middleware.ReadRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Monitor dashboard (public)
		r.Route("/monitors", func(r chi.Router) {
			r.Use(readRateLimit)
			r.Get("/", monitorsHandler.ListMonitors)
			r.Get("/stats", monitorsHandler.GetStats)
		})

		var componentsHandler *handler.ComponentsHandler
		if cfg.Catalog != nil {
			componentsHandler = handler.NewComponentsHandler(cfg.Catalog, cfg.Logger)

			// Component catalog (public reads)
			r.Route("/components", func(r chi.Router) {
				r.Use(readRateLimit)
				r.Get("/", componentsHandler.ListComponents)
				r.Get("/{componentId}", componentsHandler.GetComponent)
			})
		}

		// Admin endpoints - admin token, per-subject write limits
		if cfg.TokenValidator != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminAuth(cfg.TokenValidator))
				r.Use(middleware.RateLimitBySubject(middleware.AdminWriteRateLimit))

				if componentsHandler != nil {
					r.Route("/components", func(r chi.Router) {
						r.With(middleware.RequireJSON).Post("/", componentsHandler.CreateComponent)
						r.With(middleware.RequireJSON).Put("/{componentId}", componentsHandler.UpdateComponent)
						r.Delete("/{componentId}", componentsHandler.DeleteComponent)
					})
				}

				if cfg.MonitorRepository != nil && cfg.Refresher != nil {
					r.Route("/monitors", func(r chi.Router) {
						r.With(middleware.RequireJSON).Post("/", monitorsHandler.CreateMonitor)
						r.With(middleware.RequireJSON).Put("/{monitorId}", monitorsHandler.UpdateMonitor)
						r.Delete("/{monitorId}", monitorsHandler.DeleteMonitor)
					})
				}
			})
		}
	})

	return r
}
