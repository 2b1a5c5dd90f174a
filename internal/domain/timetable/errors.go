// internal/domain/timetable/errors.go
package timetable

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownField = errors.New("unknown slot field")

// ConfigurationError reports a malformed or incomplete timetable. An engine
// refuses to start on it.
type ConfigurationError struct {
	Period string
	Slot   SlotKey
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	var path []string
	if e.Period != "" {
		path = append(path, e.Period)
	}
	if e.Slot != "" {
		path = append(path, string(e.Slot))
	}
	if e.Field != "" {
		path = append(path, e.Field)
	}
	if len(path) == 0 {
		return "timetable configuration: " + e.Reason
	}
	return fmt.Sprintf("timetable configuration: %s: %s", strings.Join(path, "."), e.Reason)
}

// TimeParseError reports a trigger time that is not a valid 24-hour HH:MM.
type TimeParseError struct {
	Value  string
	Reason string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid time of day %q: %s", e.Value, e.Reason)
}
