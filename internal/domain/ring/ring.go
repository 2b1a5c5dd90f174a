// internal/domain/ring/ring.go
package ring

import (
	"database/sql"
	"time"

	"school_bell/internal/domain/timetable"
)

// Outcome records what happened when a trigger matched.
type Outcome string

const (
	OutcomePlayed  Outcome = "PLAYED"
	OutcomeSkipped Outcome = "SKIPPED" // Audio configured but the file is not accessible
	OutcomeSilent  Outcome = "SILENT"  // Slot has no audio configured
	OutcomeFailed  Outcome = "FAILED"  // Player rejected the audio (corrupt, unsupported, bad offset)
)

// Ring is one fired trigger. Corresponds to the 'bell_rings' table.
type Ring struct {
	ID                 int64
	Period             string
	SlotKey            timetable.SlotKey
	Edge               timetable.Edge
	SlotName           string
	Minute             string // HH:MM the trigger matched
	AudioPath          string
	StartOffsetSeconds int
	DurationSeconds    int
	Outcome            Outcome
	Error              sql.NullString // Set when Outcome is FAILED or SKIPPED
	FiredAt            time.Time
}

// Trigger returns the slot/edge reference of the ring.
func (r *Ring) Trigger() timetable.TriggerRef {
	return timetable.TriggerRef{Key: r.SlotKey, Edge: r.Edge}
}
