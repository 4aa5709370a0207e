// Package store archives runs and sweeps in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema. Seeds are stored as the int64 bit
// pattern of the uint64 value.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    seed INTEGER NOT NULL,
    size INTEGER NOT NULL,
    betaj REAL NOT NULL,
    fill_rate REAL NOT NULL,
    order_threshold REAL NOT NULL,
    steps INTEGER NOT NULL,
    reason TEXT NOT NULL,     -- 'ordered', 'max_steps', 'cancelled'
    final_energy INTEGER NOT NULL,
    final_order REAL NOT NULL,
    accept_rate REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS run_samples (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    energy INTEGER NOT NULL,
    order_a REAL NOT NULL,
    order_b REAL NOT NULL,
    order_c REAL NOT NULL,
    order_single REAL NOT NULL,
    PRIMARY KEY (run_id, step)
);

CREATE TABLE IF NOT EXISTS sweeps (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL        -- 'fill', 'betaj', 'size'
);
CREATE INDEX IF NOT EXISTS idx_sweeps_name ON sweeps(name);

CREATE TABLE IF NOT EXISTS sweep_points (
    sweep_id INTEGER NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    value REAL NOT NULL,
    label TEXT NOT NULL,
    seed INTEGER NOT NULL,
    size INTEGER NOT NULL,
    betaj REAL NOT NULL,
    fill_rate REAL NOT NULL,
    steps INTEGER NOT NULL,
    final_order REAL NOT NULL,
    order_mean REAL NOT NULL,
    order_std REAL NOT NULL,
    accept_rate REAL NOT NULL,
    PRIMARY KEY (sweep_id, idx)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

// InitSchema creates the schema if the database is new.
func InitSchema(ctx context.Context, db *sql.DB) error {
	version, err := getSchemaVersion(ctx, db)
	if err == nil {
		if version > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// getSchemaVersion returns the current schema version from the database.
// Returns an error if the schema_version table doesn't exist or is empty.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, sql.ErrNoRows
	}
	return int(version.Int64), nil
}
