package store

import (
	"context"

	"github.com/google/uuid"

	"reservas/internal/domain"
)

// BookingTx is the unit of work for the booking flow. All writes to the
// reservation family go through it so that creating a reservation and
// resolving its invitees either both land or both roll back.
type BookingTx interface {
	CreateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	CreateInvitation(ctx context.Context, inv domain.Invitation, invitees []domain.Invitee) (domain.Invitation, error)

	// SaveInvitation inserts or updates by primary-key identity, so a
	// detached invitation can be written back without tracking whether it
	// was loaded through the soft-delete bypass.
	SaveInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error)

	// ReplaceInvitees discards the reservation's whole invitee collection
	// and writes the new one. Invitee edits are wholesale, not diffed.
	ReplaceInvitees(ctx context.Context, reservationID uuid.UUID, invitees []domain.Invitee) error

	// CancelReservation soft-deletes the reservation and its invitation in
	// lockstep; the rows stay behind for history.
	CancelReservation(ctx context.Context, id uuid.UUID, actorID string) error
}
