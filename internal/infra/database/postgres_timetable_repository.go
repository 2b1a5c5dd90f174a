// internal/infra/database/postgres_timetable_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"school_bell/internal/domain/timetable"
)

// Custom errors specific to timetable repository
var ErrTimetableEmpty = fmt.Errorf("timetable has not been stored yet")
var ErrSlotNotFound = fmt.Errorf("timetable slot not found")

const upsertSlotQuery = `INSERT INTO bell_slots (period, slot_key, name, time_of_day, time_start, time_end, audio_path, start_offset_seconds, duration_seconds, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
               ON CONFLICT (period, slot_key) DO UPDATE SET
                   name = EXCLUDED.name,
                   time_of_day = EXCLUDED.time_of_day,
                   time_start = EXCLUDED.time_start,
                   time_end = EXCLUDED.time_end,
                   audio_path = EXCLUDED.audio_path,
                   start_offset_seconds = EXCLUDED.start_offset_seconds,
                   duration_seconds = EXCLUDED.duration_seconds,
                   updated_at = NOW()`

type PostgresTimetableRepository struct {
	db *sql.DB
}

func NewPostgresTimetableRepository(db *sql.DB) *PostgresTimetableRepository {
	return &PostgresTimetableRepository{db: db}
}

// Load returns every stored slot grouped by period, or ErrTimetableEmpty.
func (r *PostgresTimetableRepository) Load(ctx context.Context) (timetable.Timetable, error) {
	query := `SELECT period, slot_key, name, time_of_day, time_start, time_end, audio_path, start_offset_seconds, duration_seconds
               FROM bell_slots ORDER BY period, slot_key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error loading timetable: %w", err)
	}
	defer rows.Close()

	tt := timetable.Timetable{}
	for rows.Next() {
		var (
			period string
			key    string
			s      timetable.Slot
		)
		if err := rows.Scan(&period, &key, &s.Name, &s.Time, &s.TimeStart, &s.TimeEnd, &s.AudioPath, &s.StartOffsetSeconds, &s.DurationSeconds); err != nil {
			return nil, fmt.Errorf("error scanning timetable slot: %w", err)
		}
		if tt[period] == nil {
			tt[period] = timetable.Period{}
		}
		tt[period][timetable.SlotKey(key)] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timetable slots: %w", err)
	}
	if len(tt) == 0 {
		return nil, ErrTimetableEmpty
	}
	return tt, nil
}

// Save upserts every slot of t in a single transaction.
func (r *PostgresTimetableRepository) Save(ctx context.Context, t timetable.Timetable) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for timetable save: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, upsertSlotQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for timetable save: %w", err)
	}
	defer stmt.Close()

	for _, period := range t.Periods() {
		for _, key := range timetable.SlotKeys {
			s, ok := t[period][key]
			if !ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, period, string(key), s.Name, s.Time, s.TimeStart, s.TimeEnd, s.AudioPath, s.StartOffsetSeconds, s.DurationSeconds); err != nil {
				return fmt.Errorf("error saving slot %s.%s: %w", period, key, err)
			}
		}
	}

	return txn.Commit()
}

func (r *PostgresTimetableRepository) SaveSlot(ctx context.Context, period string, key timetable.SlotKey, s timetable.Slot) error {
	_, err := r.db.ExecContext(ctx, upsertSlotQuery, period, string(key), s.Name, s.Time, s.TimeStart, s.TimeEnd, s.AudioPath, s.StartOffsetSeconds, s.DurationSeconds)
	if err != nil {
		return fmt.Errorf("error saving slot %s.%s: %w", period, key, err)
	}
	return nil
}
