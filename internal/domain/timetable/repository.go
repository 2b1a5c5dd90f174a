package timetable

import "context"

// Repository persists the timetable edited by the school staff.
type Repository interface {
	Load(ctx context.Context) (Timetable, error)
	Save(ctx context.Context, t Timetable) error // Replaces every slot of every period in t
	SaveSlot(ctx context.Context, period string, key SlotKey, slot Slot) error
}
