package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// A bell controller issues a handful of queries per minute; keep the pool small.
const (
	defaultMaxOpenConns    = 4
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bell_slots (
		period               TEXT NOT NULL,
		slot_key             TEXT NOT NULL,
		name                 TEXT NOT NULL DEFAULT '',
		time_of_day          TEXT NOT NULL DEFAULT '',
		time_start           TEXT NOT NULL DEFAULT '',
		time_end             TEXT NOT NULL DEFAULT '',
		audio_path           TEXT NOT NULL DEFAULT '',
		start_offset_seconds INTEGER NOT NULL DEFAULT 0 CHECK (start_offset_seconds >= 0),
		duration_seconds     INTEGER NOT NULL DEFAULT 10 CHECK (duration_seconds >= 1),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (period, slot_key)
	)`,
	`CREATE TABLE IF NOT EXISTS bell_rings (
		id                   BIGSERIAL PRIMARY KEY,
		period               TEXT NOT NULL,
		slot_key             TEXT NOT NULL,
		edge                 TEXT NOT NULL,
		slot_name            TEXT NOT NULL DEFAULT '',
		minute               TEXT NOT NULL,
		audio_path           TEXT NOT NULL DEFAULT '',
		start_offset_seconds INTEGER NOT NULL DEFAULT 0,
		duration_seconds     INTEGER NOT NULL DEFAULT 0,
		outcome              TEXT NOT NULL,
		error                TEXT,
		fired_at             TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS bell_rings_fired_at_idx ON bell_rings (fired_at DESC)`,
}

// EnsureSchema creates the bell tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
