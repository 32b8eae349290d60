package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrInvalidWindow rejects availability windows whose end does not come
// strictly after their start.
var ErrInvalidWindow = errors.New("window end time must be after start time")

// Establishment is a bookable venue. It is read-only from this service's
// point of view; establishment management lives elsewhere.
type Establishment struct {
	bun.BaseModel `bun:"table:establishments"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	Name     string    `bun:"name,notnull"`
	Capacity int       `bun:"capacity,notnull"`
	// SlotDurationMinutes nil or <= 0 means the establishment has no fixed
	// slot grid and accepts free-form bookings inside its windows.
	SlotDurationMinutes *int      `bun:"slot_duration_minutes"`
	BreakMinutes        *int      `bun:"break_minutes"`
	Active              bool      `bun:"active,notnull,default:true"`
	CreatedAt           time.Time `bun:"created_at,notnull"`
	UpdatedAt           time.Time `bun:"updated_at,notnull"`

	Windows []AvailabilityWindow `bun:"rel:has-many,join:id=establishment_id"`
}

// AvailabilityWindow is one weekly-recurring open interval: an establishment
// accepts bookings on DayOfWeek between StartTime (inclusive) and EndTime
// (exclusive). An establishment may publish several windows for the same day;
// keeping them non-overlapping is the creator's responsibility, not ours.
type AvailabilityWindow struct {
	bun.BaseModel `bun:"table:availability_windows"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	EstablishmentID uuid.UUID `bun:"establishment_id,notnull,type:uuid"`
	DayOfWeek       DayOfWeek `bun:"day_of_week,notnull"`
	StartTime       TimeOfDay `bun:"start_time,notnull"`
	EndTime         TimeOfDay `bun:"end_time,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func NewAvailabilityWindow(establishmentID uuid.UUID, day DayOfWeek, start, end TimeOfDay) (AvailabilityWindow, error) {
	if !day.Valid() {
		return AvailabilityWindow{}, fmt.Errorf("invalid day of week %d", int16(day))
	}
	if !end.After(start) {
		return AvailabilityWindow{}, fmt.Errorf("%w: %s-%s", ErrInvalidWindow, start, end)
	}
	return AvailabilityWindow{
		EstablishmentID: establishmentID,
		DayOfWeek:       day,
		StartTime:       start,
		EndTime:         end,
	}, nil
}

// Covers reports whether a booking at time t on day falls inside the window.
// The interval is half-open: a booking exactly at EndTime is outside.
func (w AvailabilityWindow) Covers(day DayOfWeek, t TimeOfDay) bool {
	return w.DayOfWeek == day && !t.Before(w.StartTime) && t.Before(w.EndTime)
}

func (e *Establishment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}

func (w *AvailabilityWindow) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if w.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			w.ID = id
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.UpdatedAt.IsZero() {
			w.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		w.UpdatedAt = now
	}
	return nil
}
