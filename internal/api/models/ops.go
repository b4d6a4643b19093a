package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the status of the refresh loop and its backends.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Backends   []BackendStatus   `json:"backends"`
	Refresh    *RefreshStatus    `json:"refresh,omitempty"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// BackendStatus represents the circuit breaker view of a data backend.
type BackendStatus struct {
	Backend             string       `json:"backend"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}

// RefreshStatus describes the monitor refresh loop.
type RefreshStatus struct {
	Running             bool       `json:"running"`
	Generation          uint64     `json:"generation"`
	LastAttemptAt       *Timestamp `json:"lastAttemptAt,omitempty"`
	LastSuccessAt       *Timestamp `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp `json:"lastFailureAt,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	TotalRefreshes      int64      `json:"totalRefreshes"`
	FailedRefreshes     int64      `json:"failedRefreshes"`
	RejectedRows        int        `json:"rejectedRows"`
}
