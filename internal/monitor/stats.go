package monitor

import (
	"sort"
)

// ComputeStats summarises a snapshot. It never divides by zero: an empty
// snapshot yields the zero Stats value.
func ComputeStats(monitors []Monitor) Stats {
	stats := Stats{Total: len(monitors)}
	if len(monitors) == 0 {
		return stats
	}

	var uptimeSum float64
	for _, m := range monitors {
		switch m.Status {
		case StatusActive:
			stats.ActiveCount++
		case StatusWarning:
			stats.WarningCount++
		case StatusCritical:
			stats.CriticalCount++
		}
		uptimeSum += m.UptimePercentage
	}

	stats.AverageUptime = uptimeSum / float64(len(monitors))
	return stats
}

// SortSnapshot orders monitors for display grouping: most severe status
// first, then title ascending, then ID ascending. The slice is sorted in place.
func SortSnapshot(monitors []Monitor) {
	sort.SliceStable(monitors, func(i, j int) bool {
		a, b := monitors[i], monitors[j]
		if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
			return ra > rb
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}
