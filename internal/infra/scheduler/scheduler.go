package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"school_bell/internal/domain/ring"
	"school_bell/internal/domain/timetable"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	minuteLayout  = "15:04"
	recordTimeout = 5 * time.Second

	errAudioNotAccessible = "audio file not accessible"
)

var ErrEngineRunning = errors.New("bell engine is already running")

// Player is the audio collaborator of the engine. Play reports started=false
// without an error when there is nothing to play.
type Player interface {
	Play(path string, offset, duration time.Duration) (started bool, err error)
	Close()
}

// Recorder receives every fired trigger. Optional.
type Recorder interface {
	RecordRing(ctx context.Context, r *ring.Ring) error
}

type trigger struct {
	ref    timetable.TriggerRef
	slot   timetable.Slot
	minute string // normalized HH:MM; empty when the configured time is malformed
}

type period struct {
	name     string
	triggers []trigger // in timetable.ScanOrder
}

// BellEngine matches the wall clock against a timetable once per minute and
// rings the matching slot of each period.
type BellEngine struct {
	mu sync.Mutex // serializes ticks with Start and Stop

	player   Player
	recorder Recorder
	logger   *logrus.Entry
	tickSpec string
	loc      *time.Location
	now      func() time.Time

	cronEngine      *cron.Cron
	entryID         cron.EntryID
	running         bool
	lastFiredMinute string
	periods         []period
}

func NewBellEngine(
	player Player,
	recorder Recorder, // may be nil
	logger *logrus.Entry,
	tickSpec string, // e.g., "* * * * *" (every minute, on the minute)
	loc *time.Location,
) *BellEngine {
	if loc == nil {
		loc = time.Local
	}
	return &BellEngine{
		player:   player,
		recorder: recorder,
		logger:   logger,
		tickSpec: tickSpec,
		loc:      loc,
		now:      time.Now,
	}
}

// Start validates and compiles a snapshot of tt, runs one tick right away and
// then keeps ticking on the configured cron spec until Stop. A timetable that
// fails validation leaves the engine stopped and returns the
// *timetable.ConfigurationError.
func (e *BellEngine) Start(tt timetable.Timetable) error {
	if err := tt.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrEngineRunning
	}

	c := cron.New(cron.WithLocation(e.loc))
	id, err := c.AddFunc(e.tickSpec, e.tick)
	if err != nil {
		return fmt.Errorf("invalid tick spec %q: %w", e.tickSpec, err)
	}

	e.periods = e.compile(tt)
	e.cronEngine = c
	e.entryID = id
	e.running = true
	e.lastFiredMinute = ""
	e.logger.WithField("tick_spec", e.tickSpec).Info("Bell engine started")

	e.tickLocked()
	c.Start()
	return nil
}

// Stop cancels future ticks and waits for a tick in progress to finish.
// Audio that is already playing is left to run its configured duration.
func (e *BellEngine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	c := e.cronEngine
	e.cronEngine = nil
	e.mu.Unlock()

	ctx := c.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	e.logger.Info("Bell engine stopped")
}

// Close stops the engine and closes the player.
func (e *BellEngine) Close() {
	e.Stop()
	e.player.Close()
}

func (e *BellEngine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// LastFiredMinute is the HH:MM of the last minute that was matched, or empty
// before the first tick.
func (e *BellEngine) LastFiredMinute() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFiredMinute
}

// NextTick returns when the next tick is due, or the zero time when stopped.
func (e *BellEngine) NextTick() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.cronEngine == nil {
		return time.Time{}
	}
	return e.cronEngine.Entry(e.entryID).Next
}

func (e *BellEngine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickLocked()
}

func (e *BellEngine) tickLocked() {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", r).Error("Recovered from panic during bell tick")
		}
	}()

	if !e.running {
		return
	}

	now := e.now().In(e.loc)
	minute := now.Format(minuteLayout)
	if minute == e.lastFiredMinute {
		e.logger.WithField("minute", minute).Debug("Minute already checked, skipping")
		return
	}
	e.lastFiredMinute = minute

	for _, p := range e.periods {
		for _, t := range p.triggers {
			if t.minute == "" || t.minute != minute {
				continue
			}
			e.fire(p.name, t, minute, now)
			break // One bell per period per minute
		}
	}
}

func (e *BellEngine) fire(periodName string, t trigger, minute string, now time.Time) {
	entry := e.logger.WithFields(logrus.Fields{
		"period":  periodName,
		"trigger": t.ref.String(),
		"minute":  minute,
	})
	entry.Info("Bell trigger matched")

	r := &ring.Ring{
		Period:             periodName,
		SlotKey:            t.ref.Key,
		Edge:               t.ref.Edge,
		SlotName:           t.slot.Name,
		Minute:             minute,
		AudioPath:          t.slot.AudioPath,
		StartOffsetSeconds: t.slot.StartOffsetSeconds,
		DurationSeconds:    t.slot.DurationSeconds,
		FiredAt:            now,
	}

	started, err := e.player.Play(t.slot.AudioPath, t.slot.StartOffset(), t.slot.Duration())
	switch {
	case err != nil:
		entry.WithError(err).Error("Playback failed, bell skipped")
		r.Outcome = ring.OutcomeFailed
		r.Error = sql.NullString{String: err.Error(), Valid: true}
	case started:
		r.Outcome = ring.OutcomePlayed
	case t.slot.AudioPath == "":
		r.Outcome = ring.OutcomeSilent
	default:
		entry.WithField("audio_path", t.slot.AudioPath).Warn("Bell skipped, audio file not accessible")
		r.Outcome = ring.OutcomeSkipped
		r.Error = sql.NullString{String: errAudioNotAccessible, Valid: true}
	}

	if e.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := e.recorder.RecordRing(ctx, r); err != nil {
		entry.WithError(err).Warn("Failed to record bell ring")
	}
}

// compile turns the timetable into per-period trigger lists. Malformed times
// are reported here, once per start, and the trigger can never match.
func (e *BellEngine) compile(tt timetable.Timetable) []period {
	var out []period
	for _, name := range tt.Periods() {
		slots := tt[name]
		p := period{name: name}
		for _, ref := range timetable.ScanOrder {
			slot, ok := slots[ref.Key]
			if !ok {
				continue
			}
			t := trigger{ref: ref, slot: slot}
			tod, err := timetable.ParseTimeOfDay(slot.TriggerTime(ref.Edge))
			if err != nil {
				e.logger.WithError(err).WithFields(logrus.Fields{
					"period":  name,
					"trigger": ref.String(),
				}).Warn("Trigger disabled: malformed time")
			} else {
				t.minute = tod.String()
			}
			p.triggers = append(p.triggers, t)
		}
		out = append(out, p)
	}
	return out
}
