package postgrest

import (
	"time"

	"github.com/statusboard/statusboard/internal/monitor"
)

// monitorRow is a row of the monitors table as served by the REST API.
type monitorRow struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	Status           string    `json:"status"`
	LastUpdated      time.Time `json:"last_updated"`
	UptimePercentage float64   `json:"uptime_percentage"`
	ResponseTime     float64   `json:"response_time"`
}

func (r monitorRow) toMonitor() monitor.Monitor {
	m := monitor.Monitor{
		ID:               r.ID,
		Title:            r.Title,
		Status:           monitor.Status(r.Status),
		LastUpdated:      r.LastUpdated,
		UptimePercentage: r.UptimePercentage,
		ResponseTimeMs:   r.ResponseTime,
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	return m
}

// apiError is the error body returned by PostgREST.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}
