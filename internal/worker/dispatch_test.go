package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/aggregator"
	"github.com/statusboard/statusboard/internal/monitor"
	"github.com/statusboard/statusboard/internal/worker"
)

type fakeRefresher struct {
	triggers int
	fetches  int
	err      error
	deadline bool
}

func (f *fakeRefresher) Trigger() { f.triggers++ }

func (f *fakeRefresher) CheckNow(ctx context.Context) error {
	f.fetches++
	_, f.deadline = ctx.Deadline()
	return f.err
}

func TestDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		fetchErr     error
		want         worker.Outcome
		wantTriggers int
		wantFetches  int
	}{
		{
			name:         "monitor refresh triggers",
			data:         `{"job_type":"monitor_refresh","reason":"admin write"}`,
			want:         worker.Ack,
			wantTriggers: 1,
		},
		{
			name:        "health check fetches",
			data:        `{"job_type":"health_check"}`,
			want:        worker.Ack,
			wantFetches: 1,
		},
		{
			name:        "failed health check nacks",
			data:        `{"job_type":"health_check"}`,
			fetchErr:    errors.New("backend down"),
			want:        worker.Nack,
			wantFetches: 1,
		},
		{
			name: "unknown job acked",
			data: `{"job_type":"provider_refresh"}`,
			want: worker.Ack,
		},
		{
			name: "malformed json nacked",
			data: `{"job_type":`,
			want: worker.Nack,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{err: tt.fetchErr}
			d := worker.NewDispatcher(refresher, time.Second, zerolog.Nop())

			got := d.Dispatch(context.Background(), []byte(tt.data))

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTriggers, refresher.triggers)
			assert.Equal(t, tt.wantFetches, refresher.fetches)
		})
	}
}

func TestDispatcher_HealthCheckHasDeadline(t *testing.T) {
	refresher := &fakeRefresher{}
	d := worker.NewDispatcher(refresher, 0, zerolog.Nop())

	d.Dispatch(context.Background(), []byte(`{"job_type":"health_check"}`))

	assert.True(t, refresher.deadline)
}

// slowSource takes a while per call and records peak concurrency.
type slowSource struct {
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowSource) ListMonitors(ctx context.Context) ([]monitor.Monitor, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []monitor.Monitor{{ID: 1, Title: "API", Status: monitor.StatusActive, LastUpdated: time.Now(), UptimePercentage: 99}}, nil
}

func TestDispatcher_HealthCheckRunsOnRefreshLoop(t *testing.T) {
	source := &slowSource{delay: 50 * time.Millisecond}
	agg := aggregator.New(aggregator.AggregatorConfig{
		Config: aggregator.Config{Interval: time.Millisecond},
		Source: source,
		Logger: zerolog.Nop(),
	})
	t.Cleanup(agg.Stop)
	require.NoError(t, agg.Start(context.Background()))

	d := worker.NewDispatcher(agg, 5*time.Second, zerolog.Nop())
	job := []byte(`{"job_type":"health_check"}`)

	assert.Equal(t, worker.Ack, d.Dispatch(context.Background(), job))
	assert.Equal(t, int32(1), source.peak.Load(), "health check overlapped a scheduled fetch")

	agg.Stop()
	calls := source.calls.Load()

	assert.Equal(t, worker.Nack, d.Dispatch(context.Background(), job))
	assert.Equal(t, calls, source.calls.Load(), "health check fetched after Stop")
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ack", worker.Ack.String())
	assert.Equal(t, "nack", worker.Nack.String())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("PUBSUB_SUBSCRIPTION", "")
	t.Setenv("PUBSUB_MAX_OUTSTANDING", "")

	cfg := worker.ConfigFromEnv()
	assert.False(t, cfg.Enabled())
	assert.Equal(t, "statusboard-jobs", cfg.SubscriptionName)
	assert.Equal(t, 10, cfg.MaxOutstandingMessages)

	t.Setenv("PUBSUB_PROJECT_ID", "acme-prod")
	t.Setenv("PUBSUB_SUBSCRIPTION", "monitor-jobs")
	t.Setenv("PUBSUB_MAX_OUTSTANDING", "25")

	cfg = worker.ConfigFromEnv()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "monitor-jobs", cfg.SubscriptionName)
	assert.Equal(t, 25, cfg.MaxOutstandingMessages)
}
