package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Partial unique indexes that allow at most one active assignment per
// driver and per cab.
const (
	activeDriverIndex = "cab_assignments_active_driver_idx"
	activeCabIndex    = "cab_assignments_active_cab_idx"
)

// References between tables are plain columns: a cab or driver may be
// removed while assignments still point at it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL DEFAULT 'admin',
		status     TEXT NOT NULL DEFAULT 'Active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		email          TEXT NOT NULL DEFAULT '',
		phone          TEXT NOT NULL DEFAULT '',
		license_number TEXT NOT NULL DEFAULT '',
		added_by       TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS drivers_added_by_idx ON drivers (added_by)`,
	`CREATE TABLE IF NOT EXISTS cabs (
		id                  TEXT PRIMARY KEY,
		cab_number          TEXT NOT NULL UNIQUE,
		insurance_number    TEXT NOT NULL DEFAULT '',
		insurance_expiry    TIMESTAMPTZ,
		registration_number TEXT NOT NULL DEFAULT '',
		cab_image           TEXT NOT NULL DEFAULT '',
		added_by            TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS cabs_added_by_idx ON cabs (added_by)`,
	`CREATE TABLE IF NOT EXISTS cab_assignments (
		id           TEXT PRIMARY KEY,
		driver_id    TEXT NOT NULL,
		cab_id       TEXT NOT NULL,
		assigned_by  TEXT NOT NULL,
		status       TEXT NOT NULL,
		trip_details JSONB NOT NULL DEFAULT '{}'::jsonb,
		version      INTEGER NOT NULL DEFAULT 1,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + activeDriverIndex + `
		ON cab_assignments (driver_id) WHERE status <> 'completed'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + activeCabIndex + `
		ON cab_assignments (cab_id) WHERE status <> 'completed'`,
	`CREATE INDEX IF NOT EXISTS cab_assignments_assigned_by_idx ON cab_assignments (assigned_by)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id         TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		amount     NUMERIC(14, 2) NOT NULL,
		driver_id  TEXT NOT NULL DEFAULT '',
		cab_number TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS expenses_driver_idx ON expenses (driver_id)`,
	`CREATE INDEX IF NOT EXISTS expenses_cab_idx ON expenses (cab_number)`,
	`CREATE TABLE IF NOT EXISTS analytics_snapshots (
		id                    TEXT PRIMARY KEY,
		total_rides           INTEGER NOT NULL DEFAULT 0,
		revenue               DOUBLE PRECISION NOT NULL DEFAULT 0,
		customer_satisfaction DOUBLE PRECISION NOT NULL DEFAULT 0,
		fleet_utilization     DOUBLE PRECISION NOT NULL DEFAULT 0,
		date                  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
