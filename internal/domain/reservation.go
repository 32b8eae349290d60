package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is resolved by id through the external user directory. Its lifecycle
// is not ours; we only hold the fields invitations and notifications need.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID    string `bun:"id,pk"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,notnull"`
}

// Reservation is one user's booking of a specific date-time at an
// establishment. Reservations are never hard-deleted: cancelling flips Valid
// to false so historical bookings stay queryable.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID              uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID          string     `bun:"user_id,notnull"`
	EstablishmentID uuid.UUID  `bun:"establishment_id,notnull,type:uuid"`
	StartsAt        time.Time  `bun:"starts_at,notnull"`
	EndTime         *TimeOfDay `bun:"end_time"`
	Valid           bool       `bun:"valid,notnull,default:true"`
	CreatedBy       string     `bun:"created_by,notnull"`
	UpdatedBy       string     `bun:"updated_by,notnull"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull"`
}

// Invitation attaches a guest list to a reservation. It shares the
// reservation's primary key: at most one invitation per reservation, and an
// invitation cannot outlive the reservation it annotates.
type Invitation struct {
	bun.BaseModel `bun:"table:invitations"`

	ReservationID uuid.UUID `bun:"reservation_id,pk,type:uuid"`
	MeetingLink   string    `bun:"meeting_link"`
	Notes         string    `bun:"notes"`
	Valid         bool      `bun:"valid,notnull,default:true"`
	CreatedBy     string    `bun:"created_by,notnull"`
	UpdatedBy     string    `bun:"updated_by,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

// Invitee is one invited user within an invitation. The composite key makes
// double-inviting the same user to one reservation impossible at the schema
// level; the service additionally collapses duplicates before writing.
type Invitee struct {
	bun.BaseModel `bun:"table:invitees"`

	ReservationID uuid.UUID `bun:"reservation_id,pk,type:uuid"`
	UserID        string    `bun:"user_id,pk"`
	Valid         bool      `bun:"valid,notnull,default:true"`
	CreatedBy     string    `bun:"created_by,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// StampCreated and StampModified record the acting user at the persistence
// boundary. The actor is always passed in explicitly; nothing is pulled from
// ambient request state.

func (r *Reservation) StampCreated(actorID string) {
	r.CreatedBy = actorID
	r.UpdatedBy = actorID
}

func (r *Reservation) StampModified(actorID string) {
	r.UpdatedBy = actorID
}

func (i *Invitation) StampCreated(actorID string) {
	i.CreatedBy = actorID
	i.UpdatedBy = actorID
}

func (i *Invitation) StampModified(actorID string) {
	i.UpdatedBy = actorID
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

func (i *Invitation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if i.CreatedAt.IsZero() {
			i.CreatedAt = now
		}
		if i.UpdatedAt.IsZero() {
			i.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		i.UpdatedAt = now
	}
	return nil
}

func (i *Invitee) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}
