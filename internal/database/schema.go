package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the tables read by the monitor and catalog
// repositories. Each statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS monitors (
		id                BIGSERIAL PRIMARY KEY,
		title             TEXT NOT NULL,
		description       TEXT,
		status            TEXT NOT NULL CHECK (status IN ('active', 'warning', 'critical')),
		last_updated      TIMESTAMPTZ NOT NULL DEFAULT now(),
		uptime_percentage DOUBLE PRECISION NOT NULL DEFAULT 100,
		response_time     DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS components (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL,
		price       NUMERIC(14, 2) NOT NULL CHECK (price >= 0),
		image_url   TEXT NOT NULL,
		description TEXT,
		specs       TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS components_type_price_idx ON components (type, price)`,
}

// EnsureSchema creates the monitors and components tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
