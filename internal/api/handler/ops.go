// Package handler provides HTTP handlers for the statusboard API.
package handler

import (
	"net/http"
	"time"

	"github.com/statusboard/statusboard/internal/aggregator"
	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/backend/resilience"
)

// StateReader exposes the latest published monitor state.
type StateReader interface {
	Current() *aggregator.State
}

// RefreshMonitor exposes the refresh loop state.
type RefreshMonitor interface {
	StateReader
	Health() aggregator.Health
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	Version    string
	BuildTime  string
	Refresh    RefreshMonitor
	Registry   *resilience.Registry
	StaleAfter time.Duration
	Now        func() time.Time
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	refresh    RefreshMonitor
	registry   *resilience.Registry
	staleAfter time.Duration
	now        func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = time.Minute
	}

	return &OpsHandler{
		version:    cfg.Version,
		buildTime:  cfg.BuildTime,
		refresh:    cfg.Refresh,
		registry:   cfg.Registry,
		staleAfter: staleAfter,
		now:        now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// first snapshot has been published; a stale snapshot is reported as
// degraded but still ready.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(now),
	}

	if h.refresh == nil || h.refresh.Current() == nil {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"reason": "no monitor snapshot published yet"}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	refresh := h.refresh.Health()
	if refresh.IsStale(now, h.staleAfter) {
		health.Status = models.HealthStatusDegraded
		health.Details = map[string]interface{}{
			"reason":        "monitor snapshot is stale",
			"lastSuccessAt": models.Timestamp(refresh.LastSuccessAt),
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - refresh loop and backend status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(now),
		Subsystems: []models.SubsystemStatus{},
		Backends:   []models.BackendStatus{},
	}

	if h.refresh != nil {
		refresh := h.refresh.Health()
		status.Refresh = toRefreshStatus(refresh)

		sub := models.SubsystemStatus{Name: "refresh-loop", Status: models.HealthStatusOK}
		switch {
		case !refresh.Running || refresh.LastSuccessAt.IsZero():
			sub.Status = models.HealthStatusFail
		case refresh.ConsecutiveFailures > 0 || refresh.IsStale(now, h.staleAfter):
			sub.Status = models.HealthStatusDegraded
		}
		if refresh.LastError != "" {
			detail := refresh.LastError
			sub.Detail = &detail
		}
		status.Subsystems = append(status.Subsystems, sub)
		status.Status = worst(status.Status, sub.Status)
	}

	if h.registry != nil {
		for _, bh := range h.registry.GetAllHealth() {
			backend := toBackendStatus(bh)
			status.Backends = append(status.Backends, backend)
			status.Status = worst(status.Status, backend.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func toRefreshStatus(h aggregator.Health) *models.RefreshStatus {
	return &models.RefreshStatus{
		Running:             h.Running,
		Generation:          h.Generation,
		LastAttemptAt:       models.TimestampPtr(h.LastAttemptAt),
		LastSuccessAt:       models.TimestampPtr(h.LastSuccessAt),
		LastFailureAt:       models.TimestampPtr(h.LastFailureAt),
		LastError:           h.LastError,
		ConsecutiveFailures: h.ConsecutiveFailures,
		TotalRefreshes:      h.TotalRefreshes,
		FailedRefreshes:     h.FailedRefreshes,
		RejectedRows:        h.RejectedRows,
	}
}

func toBackendStatus(h *resilience.BackendHealth) models.BackendStatus {
	status := models.BackendStatus{
		Backend:             h.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        h.CircuitState.String(),
		ConsecutiveFailures: h.Counts.ConsecutiveFailures,
	}

	switch {
	case h.IsUnhealthy():
		status.Status = models.HealthStatusFail
	case h.IsDegraded():
		status.Status = models.HealthStatusDegraded
	}

	if h.LastSuccessAt != nil {
		status.LastSuccessAt = models.TimestampPtr(*h.LastSuccessAt)
	}
	if h.LastFailureAt != nil {
		status.LastFailureAt = models.TimestampPtr(*h.LastFailureAt)
	}
	if h.LastError != "" {
		msg := h.LastError
		status.Message = &msg
	}

	return status
}

// worst returns the more severe of two statuses.
func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
