package domain

// Slot is one fixed-duration bookable sub-interval of an availability window.
type Slot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Label renders the slot the way booking screens show it, e.g. "09:00 - 10:00".
func (s Slot) Label() string {
	return s.Start.String() + " - " + s.End.String()
}

// GenerateSlots decomposes one availability window into fixed-duration slots
// separated by an optional break. It is pure: identical inputs always produce
// the identical sequence.
//
// A non-positive duration means the establishment has no fixed slot grid and
// the result is empty; that is a policy, not an error. A slot that would
// spill past the window's end is discarded, never clipped. A negative break
// counts as zero.
func GenerateSlots(w AvailabilityWindow, durationMinutes, breakMinutes int) []Slot {
	if durationMinutes <= 0 {
		return nil
	}
	if breakMinutes < 0 {
		breakMinutes = 0
	}

	// The loop works in plain ints: TimeOfDay is a narrow integer type and a
	// large duration must overshoot the window, not wrap around.
	var out []Slot
	cursor := int(w.StartTime)
	for {
		end := cursor + durationMinutes
		if end > int(w.EndTime) {
			break
		}
		out = append(out, Slot{Start: TimeOfDay(cursor), End: TimeOfDay(end)})

		next := end + breakMinutes
		// Stop rather than run into the next day.
		if next >= MinutesPerDay {
			break
		}
		cursor = next
	}
	return out
}

// EstablishmentSlots applies an establishment's slot configuration to one of
// its windows. With no configured duration there is no grid to generate.
func EstablishmentSlots(e Establishment, w AvailabilityWindow) []Slot {
	duration := 0
	if e.SlotDurationMinutes != nil {
		duration = *e.SlotDurationMinutes
	}
	brk := 0
	if e.BreakMinutes != nil {
		brk = *e.BreakMinutes
	}
	return GenerateSlots(w, duration, brk)
}
