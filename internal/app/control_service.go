package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"school_bell/internal/domain/ring"
	"school_bell/internal/domain/timetable"
	idb "school_bell/internal/infra/database" // For ErrTimetableEmpty and ErrSlotNotFound

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for control service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrBellAlreadyRunning = fmt.Errorf("bell schedule is already running")
var ErrBellNotRunning = fmt.Errorf("bell schedule is not running")
var ErrFieldNotApplicable = fmt.Errorf("field does not apply to this slot")

const defaultHistoryLimit = 10
const maxHistoryLimit = 50

// Engine is the subset of the bell engine the control service drives.
type Engine interface {
	Start(tt timetable.Timetable) error
	Stop()
	Running() bool
	LastFiredMinute() string
	NextTick() time.Time
}

// Status is a snapshot of the engine for display.
type Status struct {
	Running         bool
	LastFiredMinute string
	NextTick        time.Time
}

type ControlService struct {
	mu sync.Mutex // serializes engine start, stop and restart

	engine          Engine
	timetableRepo   timetable.Repository
	ringRepo        ring.Repository
	adminTelegramID int64
	logger          *logrus.Entry
}

func NewControlService(engine Engine, tr timetable.Repository, rr ring.Repository, adminID int64, logger *logrus.Entry) *ControlService {
	return &ControlService{
		engine:          engine,
		timetableRepo:   tr,
		ringRepo:        rr,
		adminTelegramID: adminID,
		logger:          logger,
	}
}

func (s *ControlService) authorize(performingAdminID int64) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// Boot loads the stored timetable and starts the engine. Used at process
// start when the bell runs unattended.
func (s *ControlService) Boot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootLocked(ctx)
}

func (s *ControlService) bootLocked(ctx context.Context) error {
	tt, err := s.loadTimetable(ctx)
	if err != nil {
		return err
	}
	return s.engine.Start(tt)
}

// StartBell loads a fresh timetable snapshot and starts the engine.
func (s *ControlService) StartBell(ctx context.Context, performingAdminID int64) error {
	if err := s.authorize(performingAdminID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.Running() {
		return ErrBellAlreadyRunning
	}
	return s.bootLocked(ctx)
}

func (s *ControlService) StopBell(ctx context.Context, performingAdminID int64) error {
	if err := s.authorize(performingAdminID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Running() {
		return ErrBellNotRunning
	}
	s.engine.Stop()
	return nil
}

func (s *ControlService) Status(ctx context.Context, performingAdminID int64) (Status, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return Status{}, err
	}
	return Status{
		Running:         s.engine.Running(),
		LastFiredMinute: s.engine.LastFiredMinute(),
		NextTick:        s.engine.NextTick(),
	}, nil
}

func (s *ControlService) Timetable(ctx context.Context, performingAdminID int64) (timetable.Timetable, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.loadTimetable(ctx)
}

// UpdateSlot edits one field of one slot and persists it. A running engine is
// restarted with the stored timetable, since it only reads the snapshot it was
// started with. The returned bool reports whether a restart happened. Edits
// are applied one at a time.
func (s *ControlService) UpdateSlot(ctx context.Context, performingAdminID int64, period string, key timetable.SlotKey, field, value string) (timetable.Slot, bool, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return timetable.Slot{}, false, err
	}

	switch field {
	case timetable.FieldTime:
		if key.HasInterval() {
			return timetable.Slot{}, false, ErrFieldNotApplicable
		}
	case timetable.FieldTimeStart, timetable.FieldTimeEnd:
		if !key.HasInterval() {
			return timetable.Slot{}, false, ErrFieldNotApplicable
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tt, err := s.loadTimetable(ctx)
	if err != nil {
		return timetable.Slot{}, false, err
	}
	slot, ok := tt.Slot(period, key)
	if !ok {
		return timetable.Slot{}, false, idb.ErrSlotNotFound
	}
	if err := slot.Set(field, value); err != nil {
		return timetable.Slot{}, false, err
	}
	tt[period][key] = slot
	if err := tt.Validate(); err != nil {
		return timetable.Slot{}, false, err
	}

	if err := s.timetableRepo.SaveSlot(ctx, period, key, slot); err != nil {
		return timetable.Slot{}, false, fmt.Errorf("failed to save slot: %w", err)
	}

	entry := s.logger.WithFields(logrus.Fields{"period": period, "slot": key, "field": field})
	if !s.engine.Running() {
		entry.Info("Slot updated")
		return slot, false, nil
	}

	current, err := s.loadTimetable(ctx)
	if err != nil {
		entry.WithError(err).Error("Slot updated but the timetable could not be reloaded")
		return slot, false, fmt.Errorf("failed to reload timetable: %w", err)
	}
	s.engine.Stop()
	if err := s.engine.Start(current); err != nil {
		entry.WithError(err).Error("Slot updated but the bell engine failed to restart")
		return slot, false, fmt.Errorf("failed to restart bell engine: %w", err)
	}
	entry.Info("Slot updated, bell engine restarted")
	return slot, true, nil
}

// History returns the most recent rings, newest first.
func (s *ControlService) History(ctx context.Context, performingAdminID int64, limit int) ([]*ring.Ring, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rings, err := s.ringRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rings: %w", err)
	}
	return rings, nil
}

// loadTimetable reads the stored timetable, seeding the default one on first use.
func (s *ControlService) loadTimetable(ctx context.Context) (timetable.Timetable, error) {
	tt, err := s.timetableRepo.Load(ctx)
	if err == nil {
		return tt, nil
	}
	if !errors.Is(err, idb.ErrTimetableEmpty) {
		return nil, fmt.Errorf("failed to load timetable: %w", err)
	}

	s.logger.Info("No timetable stored yet, seeding the default one")
	tt = timetable.Default()
	if err := s.timetableRepo.Save(ctx, tt); err != nil {
		return nil, fmt.Errorf("failed to seed default timetable: %w", err)
	}
	return tt, nil
}
