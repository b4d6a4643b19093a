package monitor

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	monitors map[int64]Monitor
	nextID   int64
}

// NewInMemoryRepository creates a repository seeded with the given monitors.
// Seed entries keep their IDs; later inserts continue after the highest one.
func NewInMemoryRepository(seed ...Monitor) *InMemoryRepository {
	r := &InMemoryRepository{
		monitors: make(map[int64]Monitor, len(seed)),
	}
	for _, m := range seed {
		r.monitors[m.ID] = m
		if m.ID > r.nextID {
			r.nextID = m.ID
		}
	}
	return r
}

// ListMonitors returns all monitors in display order.
func (r *InMemoryRepository) ListMonitors(_ context.Context) ([]Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		items = append(items, m)
	}
	SortSnapshot(items)
	return items, nil
}

// Get retrieves a monitor by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[id]
	if !ok {
		return nil, ErrMonitorNotFound
	}
	return &m, nil
}

// Create inserts a monitor and assigns its ID.
func (r *InMemoryRepository) Create(_ context.Context, m *Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	m.ID = r.nextID
	r.monitors[m.ID] = *m
	return nil
}

// Update replaces an existing monitor.
func (r *InMemoryRepository) Update(_ context.Context, m *Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.monitors[m.ID]; !ok {
		return ErrMonitorNotFound
	}
	r.monitors[m.ID] = *m
	return nil
}

// Delete removes a monitor by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.monitors[id]; !ok {
		return ErrMonitorNotFound
	}
	delete(r.monitors, id)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
