package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/aggregator"
	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/monitor"
)

// StateLoader loads a previously published state from a shared store.
type StateLoader interface {
	Load(ctx context.Context) (*aggregator.State, error)
}

// Refresher requests an out-of-band refresh.
type Refresher interface {
	Trigger()
}

// MonitorsConfig holds the dependencies of MonitorsHandler.
type MonitorsConfig struct {
	State StateReader

	// Fallback serves a shared state while this instance has none of its own.
	Fallback StateLoader

	// Repository enables the admin monitor endpoints. May be nil.
	Repository monitor.Repository
	Refresher  Refresher

	// RetryAfter is advertised when no snapshot is available.
	RetryAfter time.Duration

	Logger zerolog.Logger
	Now    func() time.Time
}

// MonitorsHandler serves the monitor dashboard.
type MonitorsHandler struct {
	state      StateReader
	fallback   StateLoader
	repo       monitor.Repository
	refresher  Refresher
	retryAfter time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewMonitorsHandler creates a new MonitorsHandler.
func NewMonitorsHandler(cfg MonitorsConfig) *MonitorsHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &MonitorsHandler{
		state:      cfg.State,
		fallback:   cfg.Fallback,
		repo:       cfg.Repository,
		refresher:  cfg.Refresher,
		retryAfter: cfg.RetryAfter,
		logger:     cfg.Logger,
		now:        now,
	}
}

// ListMonitors handles GET /v1/monitors.
func (h *MonitorsHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	state, ok := h.currentState(w, r)
	if !ok {
		return
	}

	now := h.now()
	items := make([]models.Monitor, 0, len(state.Snapshot))
	for _, m := range state.Snapshot {
		items = append(items, toAPIMonitor(m, now))
	}

	response.JSON(w, r, http.StatusOK, models.MonitorSnapshot{
		Items:       items,
		Stats:       toAPIStats(state.Stats),
		RefreshedAt: models.Timestamp(state.RefreshedAt),
		Generation:  state.Generation,
	})
}

// GetStats handles GET /v1/monitors/stats.
func (h *MonitorsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	state, ok := h.currentState(w, r)
	if !ok {
		return
	}

	response.JSON(w, r, http.StatusOK, models.MonitorStatsResponse{
		Stats:       toAPIStats(state.Stats),
		RefreshedAt: models.Timestamp(state.RefreshedAt),
		Generation:  state.Generation,
	})
}

// CreateMonitor handles POST /v1/admin/monitors.
func (h *MonitorsHandler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	var req models.MonitorWriteRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	m := toDomainMonitor(&req, 0, h.now())
	if err := monitor.ValidateWrite(m); err != nil {
		h.writeMonitorError(w, r, err)
		return
	}

	if err := h.repo.Create(r.Context(), &m); err != nil {
		h.writeMonitorError(w, r, err)
		return
	}
	h.refresher.Trigger()

	response.Created(w, r, "/v1/admin/monitors/"+strconv.FormatInt(m.ID, 10), toAPIMonitor(m, h.now()))
}

// UpdateMonitor handles PUT /v1/admin/monitors/{monitorId}.
func (h *MonitorsHandler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "monitorId")
	if !ok {
		return
	}

	var req models.MonitorWriteRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	m := toDomainMonitor(&req, id, h.now())
	if err := monitor.ValidateWrite(m); err != nil {
		h.writeMonitorError(w, r, err)
		return
	}

	if err := h.repo.Update(r.Context(), &m); err != nil {
		h.writeMonitorError(w, r, err)
		return
	}
	h.refresher.Trigger()

	response.JSON(w, r, http.StatusOK, toAPIMonitor(m, h.now()))
}

// DeleteMonitor handles DELETE /v1/admin/monitors/{monitorId}.
func (h *MonitorsHandler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "monitorId")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeMonitorError(w, r, err)
		return
	}
	h.refresher.Trigger()

	response.NoContent(w, r)
}

// currentState returns this instance's state or, failing that, the shared
// fallback. It writes a 503 when neither is available.
func (h *MonitorsHandler) currentState(w http.ResponseWriter, r *http.Request) (*aggregator.State, bool) {
	if state := h.state.Current(); state != nil {
		return state, true
	}

	if h.fallback != nil {
		state, err := h.fallback.Load(r.Context())
		if err == nil {
			w.Header().Set("X-Snapshot-Source", "cache")
			return state, true
		}
		h.logger.Debug().Err(err).Msg("no fallback monitor state")
	}

	response.ServiceUnavailable(w, r, "monitor snapshot not available yet", h.retryAfter)
	return nil, false
}

func (h *MonitorsHandler) writeMonitorError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *monitor.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "invalid monitor", []models.FieldError{
			{Field: validationErr.Field, Message: validationErr.Reason},
		})
	case errors.Is(err, monitor.ErrMonitorNotFound):
		response.NotFound(w, r, "monitor not found")
	default:
		h.logger.Error().Err(err).Msg("monitor write failed")
		response.InternalError(w, r, "failed to store monitor")
	}
}

func toAPIMonitor(m monitor.Monitor, now time.Time) models.Monitor {
	return models.Monitor{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		Status:           string(m.Status),
		StatusLabel:      m.Status.Label(),
		LastUpdated:      models.Timestamp(m.LastUpdated),
		LastUpdatedAgo:   monitor.RelativeAge(m.LastUpdated, now),
		UptimePercentage: m.UptimePercentage,
		UptimeBand:       string(monitor.BandFor(m.UptimePercentage)),
		ResponseTimeMs:   m.ResponseTimeMs,
		ResponseSeverity: string(monitor.ResponseSeverity(m.ResponseTimeMs)),
	}
}

// toDomainMonitor builds a monitor from a write request. A missing
// lastUpdated defaults to now.
func toDomainMonitor(req *models.MonitorWriteRequest, id int64, now time.Time) monitor.Monitor {
	lastUpdated := now
	if req.LastUpdated != nil {
		lastUpdated = req.LastUpdated.Time()
	}
	return monitor.Monitor{
		ID:               id,
		Title:            req.Title,
		Description:      req.Description,
		Status:           monitor.Status(req.Status),
		LastUpdated:      lastUpdated,
		UptimePercentage: req.UptimePercentage,
		ResponseTimeMs:   req.ResponseTimeMs,
	}
}

func toAPIStats(s monitor.Stats) models.MonitorStats {
	return models.MonitorStats{
		Total:         s.Total,
		Active:        s.ActiveCount,
		Warning:       s.WarningCount,
		Critical:      s.CriticalCount,
		AverageUptime: s.AverageUptime,
	}
}

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, r, "invalid id", []models.FieldError{
			{Field: param, Message: "must be a positive integer", Code: "invalid"},
		})
		return 0, false
	}
	return id, true
}
