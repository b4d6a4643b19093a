package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/aggregator"
	"github.com/statusboard/statusboard/internal/api"
	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/auth"
	"github.com/statusboard/statusboard/internal/backend/resilience"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/monitor"
)

func testJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "statusboard",
		Audience:   "statusboard-admin",
	})
	require.NoError(t, err)
	return svc
}

func seedMonitors() []monitor.Monitor {
	now := time.Now()
	return []monitor.Monitor{
		{ID: 1, Title: "API Gateway", Status: monitor.StatusActive, LastUpdated: now, UptimePercentage: 100, ResponseTimeMs: 45},
		{ID: 2, Title: "Database", Status: monitor.StatusCritical, LastUpdated: now.Add(-2 * time.Hour), UptimePercentage: 90, ResponseTimeMs: 900},
		{ID: 3, Title: "Search", Status: monitor.StatusWarning, LastUpdated: now.Add(-5 * time.Minute), UptimePercentage: 80, ResponseTimeMs: 250},
	}
}

type testEnv struct {
	router   http.Handler
	agg      *aggregator.Aggregator
	monitors *monitor.InMemoryRepository
	jwt      *auth.JWTService
}

// newTestEnv builds a router over in-memory backends. When started is true
// it waits for the first snapshot.
func newTestEnv(t *testing.T, started bool) *testEnv {
	t.Helper()

	logger := zerolog.New(io.Discard)
	monitors := monitor.NewInMemoryRepository(seedMonitors()...)
	agg := aggregator.New(aggregator.AggregatorConfig{
		Config: aggregator.Config{Interval: time.Hour, FetchTimeout: time.Second},
		Source: monitors,
		Logger: logger,
	})
	t.Cleanup(agg.Stop)

	if started {
		require.NoError(t, agg.Start(context.Background()))
		require.Eventually(t, func() bool { return agg.Current() != nil }, time.Second, 5*time.Millisecond)
	}

	jwtService := testJWTService(t)
	router := api.NewRouter(api.RouterConfig{
		Version:           "test",
		BuildTime:         "2024-01-01T00:00:00Z",
		Logger:            logger,
		Monitors:          agg,
		MonitorRepository: monitors,
		Refresher:         agg,
		Catalog:           catalog.NewService(catalog.NewInMemoryRepository()),
		TokenValidator:    jwtService,
		Backends:          resilience.NewRegistry(),
		RefreshInterval:   time.Second,
	})

	return &testEnv{router: router, agg: agg, monitors: monitors, jwt: jwtService}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := e.jwt.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func ptr[T any](v T) *T { return &v }

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/ops/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck_BeforeFirstSnapshot(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/ops/ready", nil, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
}

func TestRouter_ReadinessCheck_AfterFirstSnapshot(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/v1/ops/ready", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

type stubRefreshMonitor struct {
	state  *aggregator.State
	health aggregator.Health
}

func (s stubRefreshMonitor) Current() *aggregator.State { return s.state }
func (s stubRefreshMonitor) Health() aggregator.Health { return s.health }

func TestRouter_ReadinessCheck_StaleSnapshot(t *testing.T) {
	lastSuccess := time.Now().Add(-time.Minute)
	router := api.NewRouter(api.RouterConfig{
		Logger: zerolog.New(io.Discard),
		Monitors: stubRefreshMonitor{
			state:  &aggregator.State{Generation: 3, RefreshedAt: lastSuccess},
			health: aggregator.Health{Running: true, Generation: 3, LastSuccessAt: lastSuccess},
		},
		RefreshInterval: 10 * time.Second,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusDegraded, health.Status)
	assert.Equal(t, "monitor snapshot is stale", health.Details["reason"])
	assert.Contains(t, health.Details, "lastSuccessAt")
}

func TestRouter_ReadinessCheck_WithinStaleWindow(t *testing.T) {
	lastSuccess := time.Now().Add(-20 * time.Second)
	router := api.NewRouter(api.RouterConfig{
		Logger: zerolog.New(io.Discard),
		Monitors: stubRefreshMonitor{
			state:  &aggregator.State{Generation: 3, RefreshedAt: lastSuccess},
			health: aggregator.Health{Running: true, Generation: 3, LastSuccessAt: lastSuccess},
		},
		RefreshInterval: 10 * time.Second,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/v1/ops/status", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "refresh-loop", status.Subsystems[0].Name)
	require.NotNil(t, status.Refresh)
	assert.True(t, status.Refresh.Running)
	assert.Equal(t, uint64(1), status.Refresh.Generation)
	assert.Empty(t, status.Backends)
}

func TestRouter_SystemStatus_NotRunning(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/ops/status", nil, "")

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusFail, status.Status)
}

func TestRouter_ListMonitors(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/v1/monitors", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var snapshot models.MonitorSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))

	require.Len(t, snapshot.Items, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{snapshot.Items[0].ID, snapshot.Items[1].ID, snapshot.Items[2].ID})

	critical := snapshot.Items[0]
	assert.Equal(t, "critical", critical.Status)
	assert.Equal(t, "Critical", critical.StatusLabel)
	assert.Equal(t, "2h ago", critical.LastUpdatedAgo)
	assert.Equal(t, "poor", critical.ResponseSeverity)
	assert.Equal(t, "failing", critical.UptimeBand)

	assert.Equal(t, "5m ago", snapshot.Items[1].LastUpdatedAgo)
	assert.Equal(t, "moderate", snapshot.Items[1].ResponseSeverity)
	assert.Equal(t, "good", snapshot.Items[2].ResponseSeverity)
	assert.Equal(t, "healthy", snapshot.Items[2].UptimeBand)

	assert.Equal(t, models.MonitorStats{Total: 3, Active: 1, Warning: 1, Critical: 1, AverageUptime: 90}, snapshot.Stats)
	assert.Equal(t, uint64(1), snapshot.Generation)
}

func TestRouter_MonitorStats(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/v1/monitors/stats", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.MonitorStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Stats.Total)
	assert.InDelta(t, 90.0, resp.Stats.AverageUptime, 0.0001)
}

func TestRouter_ListMonitors_BeforeFirstSnapshot(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/monitors", nil, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

type stubLoader struct {
	state *aggregator.State
	err   error
}

func (s stubLoader) Load(context.Context) (*aggregator.State, error) {
	return s.state, s.err
}

func TestRouter_ListMonitors_FallbackState(t *testing.T) {
	logger := zerolog.New(io.Discard)
	agg := aggregator.New(aggregator.AggregatorConfig{Source: monitor.NewInMemoryRepository(), Logger: logger})

	snapshot := seedMonitors()[:1]
	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Monitors: agg,
		MonitorFallback: stubLoader{state: &aggregator.State{
			Snapshot:    snapshot,
			Stats:       aggregator.ComputeStats(snapshot),
			RefreshedAt: time.Now(),
			Generation:  7,
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/monitors", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cache", w.Header().Get("X-Snapshot-Source"))

	var resp models.MonitorSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(7), resp.Generation)
	assert.Len(t, resp.Items, 1)
}

func TestRouter_ListMonitors_FallbackMiss(t *testing.T) {
	logger := zerolog.New(io.Discard)
	agg := aggregator.New(aggregator.AggregatorConfig{Source: monitor.NewInMemoryRepository(), Logger: logger})

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Monitors:        agg,
		MonitorFallback: stubLoader{err: errors.New("no state")},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/monitors/stats", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/v1/admin/components", models.ComponentWriteRequest{Name: "x"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = env.do(t, http.MethodPost, "/v1/admin/components", models.ComponentWriteRequest{Name: "x"}, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ComponentLifecycle(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.adminToken(t)

	create := models.ComponentWriteRequest{
		Name:     "RTX 4070",
		Type:     "GPU",
		Price:    ptr(9_500_000.0),
		ImageURL: "https://example.com/rtx4070.png",
		Specs:    "12GB GDDR6X",
	}
	w := env.do(t, http.MethodPost, "/v1/admin/components", create, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Component
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Rp 9.500.000", created.PriceFormatted)
	assert.NotEmpty(t, w.Header().Get("Location"))

	path := w.Header().Get("Location")
	w = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	create.Price = ptr(8_000_000.0)
	w = env.do(t, http.MethodPut, "/v1/admin/components/"+itoa(created.ID), create, token)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Component
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.InDelta(t, 8_000_000.0, updated.Price, 0.001)

	w = env.do(t, http.MethodGet, "/v1/components?type=gpu", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ComponentList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = env.do(t, http.MethodDelete, "/v1/admin/components/"+itoa(created.ID), nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CreateComponent_Validation(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/v1/admin/components", models.ComponentWriteRequest{Type: "Toaster"}, env.adminToken(t))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)

	fields := make([]string, 0, len(problem.Errors))
	for _, fe := range problem.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "imageUrl")
}

func TestRouter_CreateComponent_WrongContentType(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/components", bytes.NewReader([]byte("name=x")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+env.adminToken(t))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_GetComponent_BadID(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/components/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/v1/components/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ListComponents_InvalidFilter(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/components?type=Toaster", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AdminMonitorWriteTriggersRefresh(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.adminToken(t)

	w := env.do(t, http.MethodPost, "/v1/admin/monitors", models.MonitorWriteRequest{
		Title:            "Queue",
		Status:           "warning",
		UptimePercentage: 97.5,
		ResponseTimeMs:   120,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Eventually(t, func() bool {
		state := env.agg.Current()
		return state != nil && state.Stats.Total == 4
	}, time.Second, 5*time.Millisecond)

	w = env.do(t, http.MethodPut, "/v1/admin/monitors/42", models.MonitorWriteRequest{
		Title:  "Missing",
		Status: "active",
	}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/v1/admin/monitors", models.MonitorWriteRequest{
		Title:  "Broken",
		Status: "unknown",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/v1/admin/monitors/1", nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	require.Eventually(t, func() bool {
		return env.agg.Current().Stats.Total == 3
	}, time.Second, 5*time.Millisecond)
}

func TestRouter_AdminMonitorWrite_UptimeOutOfRange(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.adminToken(t)

	for _, uptime := range []float64{140, -1} {
		w := env.do(t, http.MethodPost, "/v1/admin/monitors", models.MonitorWriteRequest{
			Title:            "Cache",
			Status:           "active",
			UptimePercentage: uptime,
		}, token)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

		var problem models.Problem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "uptime_percentage", problem.Errors[0].Field)
	}

	w := env.do(t, http.MethodPut, "/v1/admin/monitors/1", models.MonitorWriteRequest{
		Title:            "API Gateway",
		Status:           "active",
		UptimePercentage: 100.5,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	all, err := env.monitors.ListMonitors(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, m := range all {
		assert.LessOrEqual(t, m.UptimePercentage, 100.0)
	}
}

func TestRouter_ComponentWriteLeavesMonitorsAlone(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.adminToken(t)
	before := env.agg.Health()

	w := env.do(t, http.MethodPost, "/v1/admin/components", models.ComponentWriteRequest{
		Name:     "B650 Tomahawk",
		Type:     "Motherboard",
		Price:    ptr(3_400_000.0),
		ImageURL: "https://example.com/b650.png",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Component
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	w = env.do(t, http.MethodDelete, "/v1/admin/components/"+itoa(created.ID), nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)

	time.Sleep(20 * time.Millisecond)
	after := env.agg.Health()
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, before.TotalRefreshes, after.TotalRefreshes)
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/nonexistent", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/v1/ops/health", nil, "")

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
