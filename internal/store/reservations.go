package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reservas/internal/domain"
)

// Soft-delete convention: every entity in the reservation family carries a
// Valid flag that defaults to true. Deleting flips it to false. Reads filter
// invalid rows out unless the caller passes includeInvalid explicitly; the
// bypass is a visible parameter, not ORM scoping magic.

// EstablishmentRepository is read-only here; establishments and their
// windows are managed by a separate admin surface.
type EstablishmentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Establishment, error)
	ListWindows(ctx context.Context, establishmentID uuid.UUID) ([]domain.AvailabilityWindow, error)
}

type ReservationRepository interface {
	Get(ctx context.Context, id uuid.UUID, includeInvalid bool) (domain.Reservation, error)
	ListByUser(ctx context.Context, userID string, windowStart, windowEnd time.Time, includeInvalid bool) ([]domain.Reservation, error)
	ListByEstablishment(ctx context.Context, establishmentID uuid.UUID, windowStart, windowEnd time.Time, includeInvalid bool) ([]domain.Reservation, error)

	// InBookingTransaction runs fn inside one database transaction,
	// serialized per establishment, so a reservation and its invitation are
	// written (or discarded) together.
	InBookingTransaction(ctx context.Context, establishmentID uuid.UUID, fn func(ctx context.Context, tx BookingTx) error) error
}

type InvitationRepository interface {
	// Get returns the invitation and its invitees. With includeInvalid the
	// lookup bypasses the soft-delete filter, so cancelled reservations
	// still expose their invitation history.
	Get(ctx context.Context, reservationID uuid.UUID, includeInvalid bool) (domain.Invitation, []domain.Invitee, error)

	// Upsert reattaches a detached invitation by primary-key identity.
	// Calling it twice with the same content leaves one stored row.
	Upsert(ctx context.Context, inv domain.Invitation) (domain.Invitation, error)
}

// UserLookup resolves invitee ids against the user directory.
type UserLookup interface {
	Resolve(ctx context.Context, userID string) (domain.User, error)
}
