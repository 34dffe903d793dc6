package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"kiosk-inventory-backend/internal/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS equipment (
		equipment_id   TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		quantity       BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		size_category  TEXT,
		item_condition TEXT,
		minimum_stock  BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		equipment_id         TEXT PRIMARY KEY REFERENCES equipment (equipment_id),
		total_quantity       BIGINT NOT NULL DEFAULT 0,
		available_quantity   BIGINT NOT NULL DEFAULT 0,
		borrowed_quantity    BIGINT NOT NULL DEFAULT 0,
		damaged_quantity     BIGINT NOT NULL DEFAULT 0,
		maintenance_quantity BIGINT NOT NULL DEFAULT 0,
		minimum_stock_level  BIGINT NOT NULL DEFAULT 1,
		availability_status  TEXT NOT NULL DEFAULT 'Available',
		item_condition       TEXT,
		last_updated         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                 BIGSERIAL PRIMARY KEY,
		equipment_id       TEXT NOT NULL REFERENCES equipment (equipment_id),
		actor_id           TEXT NOT NULL,
		quantity           BIGINT NOT NULL CHECK (quantity > 0),
		status             TEXT NOT NULL,
		condition_before   TEXT,
		condition_after    TEXT,
		borrowed_at        TIMESTAMPTZ NOT NULL,
		expected_return_at TIMESTAMPTZ NOT NULL,
		actual_return_at   TIMESTAMPTZ,
		penalty_cents      BIGINT NOT NULL DEFAULT 0,
		approved_by        TEXT,
		approved_at        TIMESTAMPTZ,
		rejection_reason   TEXT,
		notes              TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_status_due ON transactions (status, expected_return_at)`,
	`CREATE TABLE IF NOT EXISTS maintenance_logs (
		id                BIGSERIAL PRIMARY KEY,
		equipment_id      TEXT NOT NULL REFERENCES equipment (equipment_id),
		maintenance_type  TEXT NOT NULL DEFAULT 'Repair',
		issue_description TEXT NOT NULL,
		severity          TEXT NOT NULL DEFAULT 'Medium',
		reserved_quantity BIGINT NOT NULL DEFAULT 1,
		status            TEXT NOT NULL DEFAULT 'Pending',
		reported_by       TEXT,
		assigned_to       TEXT,
		before_condition  TEXT,
		after_condition   TEXT,
		cost_cents        BIGINT NOT NULL DEFAULT 0,
		downtime_hours    DOUBLE PRECISION NOT NULL DEFAULT 0,
		started_at        TIMESTAMPTZ,
		completed_at      TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_equipment ON maintenance_logs (equipment_id, status)`,
}

// Migrate creates the tables the engine needs when they are missing
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.Info("Database schema is up to date", "statements", len(schema))
	return nil
}
