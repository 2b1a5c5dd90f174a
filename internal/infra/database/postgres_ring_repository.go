// internal/infra/database/postgres_ring_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"school_bell/internal/domain/ring"
	"school_bell/internal/domain/timetable"
)

type PostgresRingRepository struct {
	db *sql.DB
}

func NewPostgresRingRepository(db *sql.DB) *PostgresRingRepository {
	return &PostgresRingRepository{db: db}
}

func (r *PostgresRingRepository) Create(ctx context.Context, rg *ring.Ring) error {
	query := `INSERT INTO bell_rings (period, slot_key, edge, slot_name, minute, audio_path, start_offset_seconds, duration_seconds, outcome, error, fired_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		rg.Period, string(rg.SlotKey), string(rg.Edge), rg.SlotName, rg.Minute, rg.AudioPath,
		rg.StartOffsetSeconds, rg.DurationSeconds, string(rg.Outcome), rg.Error, rg.FiredAt,
	).Scan(&rg.ID)
	if err != nil {
		return fmt.Errorf("error creating bell ring: %w", err)
	}
	return nil
}

func (r *PostgresRingRepository) ListRecent(ctx context.Context, limit int) ([]*ring.Ring, error) {
	query := `SELECT id, period, slot_key, edge, slot_name, minute, audio_path, start_offset_seconds, duration_seconds, outcome, error, fired_at
               FROM bell_rings ORDER BY fired_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing bell rings: %w", err)
	}
	defer rows.Close()

	var rings []*ring.Ring
	for rows.Next() {
		var (
			rg      ring.Ring
			key     string
			edge    string
			outcome string
		)
		if err := rows.Scan(&rg.ID, &rg.Period, &key, &edge, &rg.SlotName, &rg.Minute, &rg.AudioPath,
			&rg.StartOffsetSeconds, &rg.DurationSeconds, &outcome, &rg.Error, &rg.FiredAt); err != nil {
			return nil, fmt.Errorf("error scanning bell ring: %w", err)
		}
		rg.SlotKey = timetable.SlotKey(key)
		rg.Edge = timetable.Edge(edge)
		rg.Outcome = ring.Outcome(outcome)
		rings = append(rings, &rg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bell rings: %w", err)
	}
	return rings, nil
}
