package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/statusboard/statusboard/internal/monitor"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := monitor.ComputeStats(nil)

	assert.Equal(t, monitor.Stats{}, stats)
	assert.Equal(t, monitor.Stats{}, monitor.ComputeStats([]monitor.Monitor{}))
}

func TestComputeStats_AverageUptime(t *testing.T) {
	monitors := []monitor.Monitor{
		{ID: 1, Title: "api", Status: monitor.StatusActive, UptimePercentage: 100},
		{ID: 2, Title: "db", Status: monitor.StatusWarning, UptimePercentage: 90},
		{ID: 3, Title: "queue", Status: monitor.StatusCritical, UptimePercentage: 80},
	}

	stats := monitor.ComputeStats(monitors)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ActiveCount)
	assert.Equal(t, 1, stats.WarningCount)
	assert.Equal(t, 1, stats.CriticalCount)
	assert.InDelta(t, 90.0, stats.AverageUptime, 1e-9)
}

func TestComputeStats_CountsSumToTotal(t *testing.T) {
	statuses := monitor.Statuses
	for n := 1; n <= 25; n++ {
		monitors := make([]monitor.Monitor, n)
		for i := range monitors {
			monitors[i] = monitor.Monitor{
				ID:               int64(i + 1),
				Title:            "m",
				Status:           statuses[(i*7+n)%len(statuses)],
				UptimePercentage: float64((i * 13) % 101),
			}
		}

		stats := monitor.ComputeStats(monitors)

		assert.Equal(t, n, stats.Total)
		assert.Equal(t, stats.Total, stats.ActiveCount+stats.WarningCount+stats.CriticalCount)
		assert.GreaterOrEqual(t, stats.AverageUptime, 0.0)
		assert.LessOrEqual(t, stats.AverageUptime, 100.0)
	}
}

func TestComputeStats_DoesNotModifyInput(t *testing.T) {
	monitors := []monitor.Monitor{
		{ID: 2, Title: "b", Status: monitor.StatusActive, UptimePercentage: 99.5},
		{ID: 1, Title: "a", Status: monitor.StatusCritical, UptimePercentage: 12},
	}
	original := append([]monitor.Monitor(nil), monitors...)

	_ = monitor.ComputeStats(monitors)

	assert.Equal(t, original, monitors)
}

func TestSortSnapshot(t *testing.T) {
	now := time.Now()
	monitors := []monitor.Monitor{
		{ID: 1, Title: "Web", Status: monitor.StatusActive, LastUpdated: now},
		{ID: 2, Title: "Cache", Status: monitor.StatusWarning, LastUpdated: now},
		{ID: 3, Title: "Billing", Status: monitor.StatusCritical, LastUpdated: now},
		{ID: 4, Title: "API", Status: monitor.StatusActive, LastUpdated: now},
		{ID: 5, Title: "Auth", Status: monitor.StatusCritical, LastUpdated: now},
		{ID: 7, Title: "API", Status: monitor.StatusActive, LastUpdated: now},
		{ID: 6, Title: "API", Status: monitor.StatusActive, LastUpdated: now},
	}

	monitor.SortSnapshot(monitors)

	var got []int64
	for _, m := range monitors {
		got = append(got, m.ID)
	}
	assert.Equal(t, []int64{5, 3, 2, 4, 6, 7, 1}, got)
}

func TestStatus_Rank(t *testing.T) {
	assert.Less(t, monitor.StatusActive.Rank(), monitor.StatusWarning.Rank())
	assert.Less(t, monitor.StatusWarning.Rank(), monitor.StatusCritical.Rank())
	assert.False(t, monitor.Status("down").IsValid())
	assert.Equal(t, "Critical", monitor.StatusCritical.Label())
	assert.Equal(t, "Unknown", monitor.Status("").Label())
}
