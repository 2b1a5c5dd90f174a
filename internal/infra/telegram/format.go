package telegram

import (
	"fmt"
	"strings"
	"time"

	"school_bell/internal/app"
	"school_bell/internal/domain/ring"
	"school_bell/internal/domain/timetable"
)

var periodTitles = map[string]string{
	timetable.PeriodMorning:   "Mañana",
	timetable.PeriodAfternoon: "Tarde",
}

var outcomeLabels = map[ring.Outcome]string{
	ring.OutcomePlayed:  "sonó",
	ring.OutcomeSkipped: "no sonó, archivo no encontrado",
	ring.OutcomeSilent:  "sin audio",
	ring.OutcomeFailed:  "falló",
}

func periodTitle(name string) string {
	if t, ok := periodTitles[name]; ok {
		return t
	}
	return name
}

func formatStatus(st app.Status) string {
	var b strings.Builder
	if st.Running {
		b.WriteString("Estado: Activo\n")
	} else {
		b.WriteString("Estado: Inactivo\n")
	}
	if st.LastFiredMinute != "" {
		b.WriteString(fmt.Sprintf("Último minuto revisado: %s\n", st.LastFiredMinute))
	}
	if !st.NextTick.IsZero() {
		b.WriteString(fmt.Sprintf("Próxima revisión: %s\n", st.NextTick.Format("15:04:05")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSlot(key timetable.SlotKey, s timetable.Slot) string {
	when := s.Time
	if key.HasInterval() {
		when = s.TimeStart + "-" + s.TimeEnd
	}
	audio := s.AudioPath
	if audio == "" {
		audio = "(sin audio)"
	}
	return fmt.Sprintf("%s [%s] %s: %s, inicio %ds, duración %ds", when, key, s.Name, audio, s.StartOffsetSeconds, s.DurationSeconds)
}

func formatTimetable(tt timetable.Timetable) string {
	var b strings.Builder
	for i, name := range tt.Periods() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("--- %s ---\n", periodTitle(name)))
		for _, key := range timetable.SlotKeys {
			s, ok := tt[name][key]
			if !ok {
				continue
			}
			b.WriteString(formatSlot(key, s))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistory(rings []*ring.Ring, loc *time.Location) string {
	if len(rings) == 0 {
		return "Todavía no ha sonado ningún timbre."
	}
	var b strings.Builder
	b.WriteString("Últimos timbres:\n")
	for _, r := range rings {
		label, ok := outcomeLabels[r.Outcome]
		if !ok {
			label = string(r.Outcome)
		}
		b.WriteString(fmt.Sprintf("%s %s %s (%s): %s",
			r.FiredAt.In(loc).Format("02/01 15:04"), periodTitle(r.Period), r.Trigger(), r.SlotName, label))
		if r.Error.Valid {
			b.WriteString(" (" + r.Error.String + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
