package monitor

import "context"

// Source lists the current monitors from a data backend.
type Source interface {
	// ListMonitors returns every monitor, ordered by status (most severe
	// first) and then title.
	ListMonitors(ctx context.Context) ([]Monitor, error)
}

// Repository adds the write operations used to seed and maintain monitors.
type Repository interface {
	Source

	// Get retrieves a monitor by ID.
	Get(ctx context.Context, id int64) (*Monitor, error)

	// Create inserts a monitor and assigns its ID.
	Create(ctx context.Context, m *Monitor) error

	// Update replaces an existing monitor.
	Update(ctx context.Context, m *Monitor) error

	// Delete removes a monitor by ID.
	Delete(ctx context.Context, id int64) error
}
