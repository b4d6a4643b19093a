package monitor

import (
	"fmt"
	"math"
)

// ValidationError describes a malformed monitor row.
type ValidationError struct {
	MonitorID int64
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("monitor %d: invalid %s: %s", e.MonitorID, e.Field, e.Reason)
}

// Validate checks a monitor for values that would break aggregation.
// Out-of-range uptime is not reported here; Sanitize clamps it instead.
func Validate(m Monitor) error {
	if !m.Status.IsValid() {
		return &ValidationError{MonitorID: m.ID, Field: "status", Reason: fmt.Sprintf("unknown status %q", m.Status)}
	}
	if math.IsNaN(m.UptimePercentage) {
		return &ValidationError{MonitorID: m.ID, Field: "uptime_percentage", Reason: "not a number"}
	}
	if math.IsNaN(m.ResponseTimeMs) || m.ResponseTimeMs < 0 {
		return &ValidationError{MonitorID: m.ID, Field: "response_time", Reason: "must be a non-negative number"}
	}
	if m.Title == "" {
		return &ValidationError{MonitorID: m.ID, Field: "title", Reason: "must not be empty"}
	}
	return nil
}

// ValidateWrite checks a monitor submitted for storage. It is stricter than
// Validate: uptime must already lie within [0,100].
func ValidateWrite(m Monitor) error {
	if err := Validate(m); err != nil {
		return err
	}
	if m.UptimePercentage < 0 || m.UptimePercentage > 100 || math.IsInf(m.UptimePercentage, 0) {
		return &ValidationError{MonitorID: m.ID, Field: "uptime_percentage", Reason: "must be between 0 and 100"}
	}
	return nil
}

// Sanitize prepares raw rows for aggregation. Rows that fail Validate are
// dropped and their errors returned; uptime is clamped to [0,100].
// The input slice is not modified.
func Sanitize(monitors []Monitor) ([]Monitor, []error) {
	clean := make([]Monitor, 0, len(monitors))
	var errs []error

	for _, m := range monitors {
		if err := Validate(m); err != nil {
			errs = append(errs, err)
			continue
		}
		m.UptimePercentage = clampUptime(m.UptimePercentage)
		clean = append(clean, m)
	}

	return clean, errs
}

func clampUptime(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
