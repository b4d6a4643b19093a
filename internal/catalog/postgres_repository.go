package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL component repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectComponents = `
	SELECT
		id, name, type, price::float8, image_url,
		COALESCE(description, ''), COALESCE(specs, ''),
		created_at, updated_at
	FROM components
`

// List retrieves components ordered by type and then price.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Component, error) {
	query := selectComponents + `
		WHERE ($1 = '' OR type = $1)
		ORDER BY type, price, id
	`

	rows, err := r.pool.Query(ctx, query, string(opts.Type))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []*Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return components, nil
}

// Get retrieves a component by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Component, error) {
	c, err := scanComponent(r.pool.QueryRow(ctx, selectComponents+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrComponentNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a component and assigns its ID.
func (r *PostgresRepository) Create(ctx context.Context, c *Component) error {
	query := `
		INSERT INTO components (
			name, type, price, image_url, description, specs, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		c.Name,
		string(c.Type),
		c.Price,
		c.ImageURL,
		c.Description,
		c.Specs,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
}

// Update replaces an existing component.
func (r *PostgresRepository) Update(ctx context.Context, c *Component) error {
	query := `
		UPDATE components SET
			name = $2,
			type = $3,
			price = $4,
			image_url = $5,
			description = $6,
			specs = $7,
			updated_at = $8
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		string(c.Type),
		c.Price,
		c.ImageURL,
		c.Description,
		c.Specs,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrComponentNotFound
	}

	return nil
}

// Delete removes a component by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM components WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrComponentNotFound
	}

	return nil
}

func scanComponent(row pgx.Row) (*Component, error) {
	var (
		c             Component
		componentType string
	)

	err := row.Scan(
		&c.ID,
		&c.Name,
		&componentType,
		&c.Price,
		&c.ImageURL,
		&c.Description,
		&c.Specs,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = ComponentType(componentType)
	return &c, nil
}
