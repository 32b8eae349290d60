package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"reservas/internal/domain"
	"reservas/internal/store"
)

type InvitationRepo struct {
	db *bun.DB
}

func NewInvitationRepo(db *bun.DB) *InvitationRepo {
	return &InvitationRepo{db: db}
}

// Get loads an invitation with its invitees. includeInvalid is the one read
// path in the system that skips the soft-delete filter: a cancelled
// reservation's guest list must stay retrievable for history.
func (r *InvitationRepo) Get(ctx context.Context, reservationID uuid.UUID, includeInvalid bool) (domain.Invitation, []domain.Invitee, error) {
	var inv domain.Invitation
	q := r.db.NewSelect().
		Model(&inv).
		Where("reservation_id = ?", reservationID)
	if !includeInvalid {
		q = q.Where("valid")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invitation{}, nil, store.ErrNotFound
		}
		return domain.Invitation{}, nil, err
	}

	var invitees []domain.Invitee
	iq := r.db.NewSelect().
		Model(&invitees).
		Where("reservation_id = ?", reservationID).
		OrderExpr("user_id ASC")
	if !includeInvalid {
		iq = iq.Where("valid")
	}
	if err := iq.Scan(ctx); err != nil {
		return domain.Invitation{}, nil, err
	}
	return inv, invitees, nil
}

// Upsert writes an invitation loaded outside the normal booking path back
// into storage, keyed on the reservation id. Saving the same invitation
// twice leaves a single row.
func (r *InvitationRepo) Upsert(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	m := inv
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (reservation_id) DO UPDATE").
		Set("meeting_link = EXCLUDED.meeting_link").
		Set("notes = EXCLUDED.notes").
		Set("valid = EXCLUDED.valid").
		Set("updated_by = EXCLUDED.updated_by").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.Invitation{}, err
	}
	return m, nil
}
