// internal/domain/timetable/slot.go
package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotKey identifies one of the canonical bell slots of a period.
type SlotKey string

const (
	SlotHora1    SlotKey = "hora1"
	SlotHora2    SlotKey = "hora2"
	SlotHora3    SlotKey = "hora3"
	SlotRecreo   SlotKey = "recreo" // Recess: the only slot with a start and an end bell
	SlotHora4    SlotKey = "hora4"
	SlotHora5    SlotKey = "hora5"
	SlotFinClase SlotKey = "fin_clase"
)

// SlotKeys lists every canonical key in timetable (display) order.
var SlotKeys = []SlotKey{SlotHora1, SlotHora2, SlotHora3, SlotRecreo, SlotHora4, SlotHora5, SlotFinClase}

// IsValid reports whether k is one of the canonical keys.
func (k SlotKey) IsValid() bool {
	for _, known := range SlotKeys {
		if k == known {
			return true
		}
	}
	return false
}

// Edge says which of a slot's trigger times a trigger refers to.
type Edge string

const (
	EdgeTime  Edge = "time"  // single-trigger slots
	EdgeStart Edge = "start" // recess start
	EdgeEnd   Edge = "end"   // recess end
)

// TriggerRef points at one trigger time of one slot.
type TriggerRef struct {
	Key  SlotKey
	Edge Edge
}

func (r TriggerRef) String() string {
	if r.Edge == EdgeTime {
		return string(r.Key)
	}
	return string(r.Key) + "." + string(r.Edge)
}

// ScanOrder is the order in which a period's triggers are matched against the
// clock. The first match wins, so overlapping times resolve by this order.
var ScanOrder = []TriggerRef{
	{Key: SlotHora1, Edge: EdgeTime},
	{Key: SlotRecreo, Edge: EdgeStart},
	{Key: SlotRecreo, Edge: EdgeEnd},
	{Key: SlotHora2, Edge: EdgeTime},
	{Key: SlotHora3, Edge: EdgeTime},
	{Key: SlotHora4, Edge: EdgeTime},
	{Key: SlotHora5, Edge: EdgeTime},
	{Key: SlotFinClase, Edge: EdgeTime},
}

// Slot is one schedulable bell event.
type Slot struct {
	Name               string `json:"name"`
	Time               string `json:"time,omitempty"`       // HH:MM, every slot but recess
	TimeStart          string `json:"time_start,omitempty"` // HH:MM, recess only
	TimeEnd            string `json:"time_end,omitempty"`   // HH:MM, recess only
	AudioPath          string `json:"audio_path"`           // empty means no sound configured
	StartOffsetSeconds int    `json:"start_offset_seconds"`
	DurationSeconds    int    `json:"duration_seconds"`
}

// TriggerTime returns the raw HH:MM string for the given edge.
func (s Slot) TriggerTime(e Edge) string {
	switch e {
	case EdgeStart:
		return s.TimeStart
	case EdgeEnd:
		return s.TimeEnd
	default:
		return s.Time
	}
}

func (s Slot) StartOffset() time.Duration {
	return time.Duration(s.StartOffsetSeconds) * time.Second
}

func (s Slot) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Editable slot fields, as accepted by Set.
const (
	FieldName      = "name"
	FieldTime      = "time"
	FieldTimeStart = "time_start"
	FieldTimeEnd   = "time_end"
	FieldAudio     = "audio"
	FieldOffset    = "offset"
	FieldDuration  = "duration"
)

// Set updates a single field from its textual form. Time fields are
// normalized to zero-padded HH:MM; numeric fields must be integers.
// Range checks are left to Timetable.Validate.
func (s *Slot) Set(field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case FieldName:
		s.Name = value
	case FieldTime, FieldTimeStart, FieldTimeEnd:
		tod, err := ParseTimeOfDay(value)
		if err != nil {
			return err
		}
		switch field {
		case FieldTime:
			s.Time = tod.String()
		case FieldTimeStart:
			s.TimeStart = tod.String()
		default:
			s.TimeEnd = tod.String()
		}
	case FieldAudio:
		s.AudioPath = value
	case FieldOffset, FieldDuration:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer number of seconds: %w", field, err)
		}
		if field == FieldOffset {
			s.StartOffsetSeconds = n
		} else {
			s.DurationSeconds = n
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}
