package models

// Monitor is a monitored entity with its display fields.
type Monitor struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Status           string    `json:"status"`
	StatusLabel      string    `json:"statusLabel"`
	LastUpdated      Timestamp `json:"lastUpdated"`
	LastUpdatedAgo   string    `json:"lastUpdatedAgo"`
	UptimePercentage float64   `json:"uptimePercentage"`
	UptimeBand       string    `json:"uptimeBand"`
	ResponseTimeMs   float64   `json:"responseTimeMs"`
	ResponseSeverity string    `json:"responseSeverity"`
}

// MonitorStats holds the aggregate counts of a snapshot.
type MonitorStats struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	Warning       int     `json:"warning"`
	Critical      int     `json:"critical"`
	AverageUptime float64 `json:"averageUptime"`
}

// MonitorSnapshot is the response for the monitor dashboard.
type MonitorSnapshot struct {
	Items       []Monitor    `json:"items"`
	Stats       MonitorStats `json:"stats"`
	RefreshedAt Timestamp    `json:"refreshedAt"`
	Generation  uint64       `json:"generation"`
}

// MonitorStatsResponse is the response for the stats-only endpoint.
type MonitorStatsResponse struct {
	Stats       MonitorStats `json:"stats"`
	RefreshedAt Timestamp    `json:"refreshedAt"`
	Generation  uint64       `json:"generation"`
}

// MonitorWriteRequest is the body for creating or replacing a monitor.
type MonitorWriteRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	LastUpdated      *Timestamp `json:"lastUpdated,omitempty"`
	UptimePercentage float64    `json:"uptimePercentage"`
	ResponseTimeMs   float64    `json:"responseTimeMs"`
}
