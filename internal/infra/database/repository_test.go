package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"school_bell/internal/domain/ring"
	"school_bell/internal/domain/timetable"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slotColumns = []string{"period", "slot_key", "name", "time_of_day", "time_start", "time_end", "audio_path", "start_offset_seconds", "duration_seconds"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTimetableLoad(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows(slotColumns).
		AddRow("morning", "hora1", "Primera hora", "08:00", "", "", "/srv/bell.wav", 2, 10).
		AddRow("morning", "recreo", "Recreo", "", "11:00", "11:30", "/srv/recreo.mp3", 0, 20).
		AddRow("afternoon", "hora1", "Primera hora", "14:00", "", "", "", 0, 10)
	mock.ExpectQuery("SELECT period, slot_key, name").WillReturnRows(rows)

	tt, err := NewPostgresTimetableRepository(db).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, timetable.Slot{Name: "Primera hora", Time: "08:00", AudioPath: "/srv/bell.wav", StartOffsetSeconds: 2, DurationSeconds: 10}, tt["morning"][timetable.SlotHora1])
	assert.Equal(t, "11:30", tt["morning"][timetable.SlotRecreo].TimeEnd)
	assert.Len(t, tt["afternoon"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableLoadEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT period, slot_key, name").WillReturnRows(sqlmock.NewRows(slotColumns))

	_, err := NewPostgresTimetableRepository(db).Load(context.Background())
	assert.ErrorIs(t, err, ErrTimetableEmpty)
}

func TestTimetableLoadQueryError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT period, slot_key, name").WillReturnError(boom)

	_, err := NewPostgresTimetableRepository(db).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestTimetableSaveWritesEverySlotInTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO bell_slots")
	prep.ExpectExec().
		WithArgs("morning", "hora1", "Primera hora", "08:00", "", "", "", 0, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 1; i < 2*len(timetable.SlotKeys); i++ {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := NewPostgresTimetableRepository(db).Save(context.Background(), timetable.Default())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSaveRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO bell_slots")
	prep.ExpectExec().WillReturnError(errors.New("check constraint violated"))
	mock.ExpectRollback()

	err := NewPostgresTimetableRepository(db).Save(context.Background(), timetable.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "morning.hora1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSaveSlot(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO bell_slots").
		WithArgs("afternoon", "recreo", "Recreo", "", "17:00", "17:20", "/srv/r.wav", 1, 15).
		WillReturnResult(sqlmock.NewResult(0, 1))

	slot := timetable.Slot{Name: "Recreo", TimeStart: "17:00", TimeEnd: "17:20", AudioPath: "/srv/r.wav", StartOffsetSeconds: 1, DurationSeconds: 15}
	err := NewPostgresTimetableRepository(db).SaveSlot(context.Background(), "afternoon", timetable.SlotRecreo, slot)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRingCreate(t *testing.T) {
	db, mock := newMock(t)
	firedAt := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO bell_rings").
		WithArgs("morning", "recreo", "start", "Recreo", "11:00", "/srv/r.wav", 0, 10, "FAILED", "decode failed", firedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

	rg := &ring.Ring{
		Period:          "morning",
		SlotKey:         timetable.SlotRecreo,
		Edge:            timetable.EdgeStart,
		SlotName:        "Recreo",
		Minute:          "11:00",
		AudioPath:       "/srv/r.wav",
		DurationSeconds: 10,
		Outcome:         ring.OutcomeFailed,
		Error:           sql.NullString{String: "decode failed", Valid: true},
		FiredAt:         firedAt,
	}
	require.NoError(t, NewPostgresRingRepository(db).Create(context.Background(), rg))
	assert.Equal(t, int64(77), rg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRingListRecent(t *testing.T) {
	db, mock := newMock(t)
	firedAt := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "period", "slot_key", "edge", "slot_name", "minute", "audio_path", "start_offset_seconds", "duration_seconds", "outcome", "error", "fired_at"}).
		AddRow(2, "morning", "hora1", "time", "Primera hora", "08:00", "/srv/bell.wav", 0, 10, "PLAYED", nil, firedAt).
		AddRow(1, "morning", "hora1", "time", "Primera hora", "08:00", "", 0, 10, "SILENT", nil, firedAt.Add(-24*time.Hour))
	mock.ExpectQuery("FROM bell_rings ORDER BY fired_at DESC").WithArgs(5).WillReturnRows(rows)

	rings, err := NewPostgresRingRepository(db).ListRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rings, 2)
	assert.Equal(t, int64(2), rings[0].ID)
	assert.Equal(t, timetable.SlotHora1, rings[0].SlotKey)
	assert.Equal(t, timetable.EdgeTime, rings[0].Edge)
	assert.Equal(t, ring.OutcomePlayed, rings[0].Outcome)
	assert.False(t, rings[0].Error.Valid)
	assert.Equal(t, ring.OutcomeSilent, rings[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS bell_slots").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS bell_rings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS bell_rings_fired_at_idx").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
