// Package monitor provides the monitored-entity model for the status
// dashboard along with the pure helpers that derive display values and
// aggregate stats from a snapshot.
package monitor

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrMonitorNotFound = errors.New("monitor not found")
)

// Status is the health state reported for a monitored entity.
type Status string

const (
	StatusActive   Status = "active"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Statuses lists every known status in ascending severity.
var Statuses = []Status{StatusActive, StatusWarning, StatusCritical}

// Rank returns the ordinal of the status (active < warning < critical).
// Unknown statuses rank below active.
func (s Status) Rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	default:
		return -1
	}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	return s.Rank() >= 0
}

// Label returns the human-readable label shown on the dashboard.
func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusWarning:
		return "Warning"
	case StatusCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Monitor is a point-in-time view of one monitored entity.
// Values are treated as immutable once read from a source.
type Monitor struct {
	ID               int64
	Title            string
	Description      string
	Status           Status
	LastUpdated      time.Time
	UptimePercentage float64
	ResponseTimeMs   float64
}

// Stats is the aggregate summary of a snapshot.
type Stats struct {
	Total         int
	ActiveCount   int
	WarningCount  int
	CriticalCount int
	AverageUptime float64
}

// Severity classifies a response time.
type Severity string

const (
	SeverityGood     Severity = "good"
	SeverityModerate Severity = "moderate"
	SeverityPoor     Severity = "poor"
)

// UptimeBand classifies an uptime percentage for display.
type UptimeBand string

const (
	UptimeHealthy  UptimeBand = "healthy"
	UptimeDegraded UptimeBand = "degraded"
	UptimeFailing  UptimeBand = "failing"
)
