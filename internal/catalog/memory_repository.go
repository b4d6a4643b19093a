package catalog

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development.
type InMemoryRepository struct {
	mu         sync.RWMutex
	components map[int64]*Component
	nextID     int64
}

// NewInMemoryRepository creates a new in-memory component repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		components: make(map[int64]*Component),
		nextID:     1,
	}
}

// List retrieves components ordered by type and then price.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Component, 0, len(r.components))
	for _, c := range r.components {
		if opts.Type != "" && c.Type != opts.Type {
			continue
		}
		cpy := *c
		result = append(result, &cpy)
	}

	SortComponents(result)
	return result, nil
}

// Get retrieves a component by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[id]
	if !ok {
		return nil, ErrComponentNotFound
	}

	cpy := *c
	return &cpy, nil
}

// Create inserts a component and assigns its ID.
func (r *InMemoryRepository) Create(_ context.Context, c *Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.nextID
	r.nextID++

	cpy := *c
	r.components[c.ID] = &cpy
	return nil
}

// Update replaces an existing component.
func (r *InMemoryRepository) Update(_ context.Context, c *Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.components[c.ID]; !ok {
		return ErrComponentNotFound
	}

	cpy := *c
	r.components[c.ID] = &cpy
	return nil
}

// Delete removes a component by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.components[id]; !ok {
		return ErrComponentNotFound
	}

	delete(r.components, id)
	return nil
}

// SortComponents orders components by type name, then price, then ID.
func SortComponents(components []*Component) {
	sort.SliceStable(components, func(i, j int) bool {
		a, b := components[i], components[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.ID < b.ID
	})
}
