package monitor

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

// NewPostgresRepository creates a new PostgreSQL monitor repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectMonitorColumns = `
	SELECT id, title, COALESCE(description, ''), status, last_updated,
	       uptime_percentage::float8, response_time::float8
	FROM monitors
`

// ListMonitors returns all monitors, most severe status first, then by title.
func (r *PostgresRepository) ListMonitors(ctx context.Context) ([]Monitor, error) {
	query := selectMonitorColumns + `
		ORDER BY CASE status
			WHEN 'critical' THEN 2
			WHEN 'warning' THEN 1
			WHEN 'active' THEN 0
			ELSE -1
		END DESC, title ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var monitors []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return monitors, nil
}

// Get retrieves a monitor by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Monitor, error) {
	m, err := scanMonitor(r.pool.QueryRow(ctx, selectMonitorColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMonitorNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a monitor and assigns its ID.
func (r *PostgresRepository) Create(ctx context.Context, m *Monitor) error {
	query := `
		INSERT INTO monitors (title, description, status, last_updated, uptime_percentage, response_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		m.Title,
		m.Description,
		m.Status,
		m.LastUpdated,
		m.UptimePercentage,
		m.ResponseTimeMs,
	).Scan(&m.ID)
}

// Update replaces an existing monitor.
func (r *PostgresRepository) Update(ctx context.Context, m *Monitor) error {
	query := `
		UPDATE monitors SET
			title = $2,
			description = $3,
			status = $4,
			last_updated = $5,
			uptime_percentage = $6,
			response_time = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		m.Status,
		m.LastUpdated,
		m.UptimePercentage,
		m.ResponseTimeMs,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrMonitorNotFound
	}

	return nil
}

// Delete removes a monitor by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrMonitorNotFound
	}

	return nil
}

func scanMonitor(row pgx.Row) (Monitor, error) {
	var m Monitor
	var status string
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&status,
		&m.LastUpdated,
		&m.UptimePercentage,
		&m.ResponseTimeMs,
	)
	m.Status = Status(status)
	return m, err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
