package catalog

import "context"

// ListOptions contains options for listing components.
type ListOptions struct {
	// Type restricts the listing to one component type. Empty lists all.
	Type ComponentType
}

// Repository defines the interface for component persistence.
type Repository interface {
	// List retrieves components ordered by type and then price.
	List(ctx context.Context, opts ListOptions) ([]*Component, error)

	// Get retrieves a component by ID.
	Get(ctx context.Context, id int64) (*Component, error)

	// Create inserts a component and assigns its ID.
	Create(ctx context.Context, c *Component) error

	// Update replaces an existing component.
	Update(ctx context.Context, c *Component) error

	// Delete removes a component by ID.
	Delete(ctx context.Context, id int64) error
}
