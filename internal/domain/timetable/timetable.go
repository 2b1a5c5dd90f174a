// internal/domain/timetable/timetable.go
package timetable

import "sort"

// Period names. A school day is split into a morning and an afternoon session.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
)

// PeriodNames lists the required periods in evaluation order.
var PeriodNames = []string{PeriodMorning, PeriodAfternoon}

// Period groups the canonical slots of one daily session.
type Period map[SlotKey]Slot

// Timetable maps a period name to its slots.
type Timetable map[string]Period

// HasInterval reports whether the slot uses a start/end pair instead of a single time.
func (k SlotKey) HasInterval() bool {
	return k == SlotRecreo
}

// Validate checks that every period and every canonical slot is present and
// that offsets and durations are in range. Trigger times are not checked here:
// a malformed time only disables that trigger (see ParseTimeOfDay).
func (t Timetable) Validate() error {
	if len(t) == 0 {
		return &ConfigurationError{Reason: "timetable is empty"}
	}
	for _, name := range PeriodNames {
		period, ok := t[name]
		if !ok {
			return &ConfigurationError{Period: name, Reason: "period is missing"}
		}
		for _, key := range SlotKeys {
			slot, ok := period[key]
			if !ok {
				return &ConfigurationError{Period: name, Slot: key, Reason: "slot is missing"}
			}
			if slot.StartOffsetSeconds < 0 {
				return &ConfigurationError{Period: name, Slot: key, Field: "start_offset_seconds", Reason: "must not be negative"}
			}
			if slot.DurationSeconds < 1 {
				return &ConfigurationError{Period: name, Slot: key, Field: "duration_seconds", Reason: "must be at least 1"}
			}
		}
	}
	return nil
}

// Clone returns a deep copy, so the result can be handed to a running engine
// while the original keeps being edited.
func (t Timetable) Clone() Timetable {
	out := make(Timetable, len(t))
	for name, period := range t {
		p := make(Period, len(period))
		for key, slot := range period {
			p[key] = slot
		}
		out[name] = p
	}
	return out
}

// Slot looks up a single slot.
func (t Timetable) Slot(period string, key SlotKey) (Slot, bool) {
	p, ok := t[period]
	if !ok {
		return Slot{}, false
	}
	s, ok := p[key]
	return s, ok
}

// Periods returns the period names present in t: known periods first in
// canonical order, then any extra ones sorted by name.
func (t Timetable) Periods() []string {
	names := make([]string, 0, len(t))
	seen := make(map[string]bool, len(PeriodNames))
	for _, name := range PeriodNames {
		if _, ok := t[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range t {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Default returns the timetable used to seed an empty store. No audio is
// configured, so every bell is silent until a file is assigned.
func Default() Timetable {
	return Timetable{
		PeriodMorning: Period{
			SlotHora1:    {Name: "Primera hora", Time: "08:00", DurationSeconds: 10},
			SlotHora2:    {Name: "Segunda hora", Time: "09:00", DurationSeconds: 10},
			SlotHora3:    {Name: "Tercera hora", Time: "10:00", DurationSeconds: 10},
			SlotRecreo:   {Name: "Recreo", TimeStart: "11:00", TimeEnd: "11:30", DurationSeconds: 10},
			SlotHora4:    {Name: "Cuarta hora", Time: "11:30", DurationSeconds: 10},
			SlotHora5:    {Name: "Quinta hora", Time: "12:30", DurationSeconds: 10},
			SlotFinClase: {Name: "Fin de clase", Time: "13:30", DurationSeconds: 15},
		},
		PeriodAfternoon: Period{
			SlotHora1:    {Name: "Primera hora", Time: "14:00", DurationSeconds: 10},
			SlotHora2:    {Name: "Segunda hora", Time: "15:00", DurationSeconds: 10},
			SlotHora3:    {Name: "Tercera hora", Time: "16:00", DurationSeconds: 10},
			SlotRecreo:   {Name: "Recreo", TimeStart: "17:00", TimeEnd: "17:30", DurationSeconds: 10},
			SlotHora4:    {Name: "Cuarta hora", Time: "17:30", DurationSeconds: 10},
			SlotHora5:    {Name: "Quinta hora", Time: "18:30", DurationSeconds: 10},
			SlotFinClase: {Name: "Fin de clase", Time: "19:30", DurationSeconds: 15},
		},
	}
}
