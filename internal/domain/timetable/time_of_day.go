// internal/domain/timetable/time_of_day.go
package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "H:MM" or "HH:MM" in 24-hour format.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TimeOfDay{}, &TimeParseError{Value: raw, Reason: "empty"}
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, &TimeParseError{Value: raw, Reason: "expected HH:MM"}
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
		return TimeOfDay{}, &TimeParseError{Value: raw, Reason: "expected HH:MM"}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, &TimeParseError{Value: raw, Reason: "hour must be 00-23"}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, &TimeParseError{Value: raw, Reason: "minute must be 00-59"}
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// String formats as zero-padded HH:MM, the same form the engine derives
// from the clock.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
