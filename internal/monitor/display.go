package monitor

import (
	"strconv"
	"time"
)

// RelativeAge renders the time elapsed since ts as a short string.
// Each bucket floors the elapsed duration, so exactly one hour reads "1h ago".
func RelativeAge(ts, now time.Time) string {
	minutes := int64(now.Sub(ts) / time.Minute)

	switch {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return strconv.FormatInt(minutes, 10) + "m ago"
	case minutes < 24*60:
		return strconv.FormatInt(minutes/60, 10) + "h ago"
	default:
		return strconv.FormatInt(minutes/(24*60), 10) + "d ago"
	}
}

// ResponseSeverity buckets a response time in milliseconds.
// Upper bounds are exclusive: 100ms is moderate and 500ms is poor.
func ResponseSeverity(ms float64) Severity {
	switch {
	case ms < 100:
		return SeverityGood
	case ms < 500:
		return SeverityModerate
	default:
		return SeverityPoor
	}
}

// BandFor classifies an uptime percentage.
func BandFor(uptime float64) UptimeBand {
	switch {
	case uptime >= 99:
		return UptimeHealthy
	case uptime >= 95:
		return UptimeDegraded
	default:
		return UptimeFailing
	}
}
