package aggregator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/statusboard/statusboard/internal/monitor"
)

const meterName = "github.com/statusboard/statusboard/internal/aggregator"

// Metrics holds the OpenTelemetry instruments for the refresh loop.
type Metrics struct {
	refreshTotal    metric.Int64Counter
	refreshDuration metric.Float64Histogram
	monitors        metric.Int64Gauge
	averageUptime   metric.Float64Gauge
}

// NewMetrics creates the refresh instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	refreshTotal, err := meter.Int64Counter(
		"monitor.refresh.total",
		metric.WithDescription("Number of monitor snapshot refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	refreshDuration, err := meter.Float64Histogram(
		"monitor.refresh.duration",
		metric.WithDescription("Duration of monitor snapshot refreshes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	monitors, err := meter.Int64Gauge(
		"monitor.count",
		metric.WithDescription("Monitors in the latest snapshot by status"),
		metric.WithUnit("{monitor}"),
	)
	if err != nil {
		return nil, err
	}

	averageUptime, err := meter.Float64Gauge(
		"monitor.uptime.average",
		metric.WithDescription("Average uptime percentage across the latest snapshot"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		refreshTotal:    refreshTotal,
		refreshDuration: refreshDuration,
		monitors:        monitors,
		averageUptime:   averageUptime,
	}, nil
}

func (m *Metrics) recordRefresh(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}

	result := "success"
	if err != nil {
		result = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("result", result))

	m.refreshTotal.Add(ctx, 1, attrs)
	m.refreshDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) recordStats(ctx context.Context, stats monitor.Stats) {
	if m == nil {
		return
	}

	counts := map[monitor.Status]int{
		monitor.StatusActive:   stats.ActiveCount,
		monitor.StatusWarning:  stats.WarningCount,
		monitor.StatusCritical: stats.CriticalCount,
	}
	for status, n := range counts {
		m.monitors.Record(ctx, int64(n), metric.WithAttributes(attribute.String("status", string(status))))
	}
	m.averageUptime.Record(ctx, stats.AverageUptime)
}
