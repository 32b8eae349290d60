package booking

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"reservas/internal/domain"
	"reservas/internal/store"
)

// resolveInvitees turns a raw id list into resolved users. Duplicate ids
// collapse silently to the first occurrence; an id that does not resolve
// aborts the whole batch.
func (s *Service) resolveInvitees(ctx context.Context, inviteeIDs []string) ([]domain.User, error) {
	if len(inviteeIDs) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(inviteeIDs))
	out := make([]domain.User, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		if id == "" {
			return nil, validationError("invitee id must not be empty")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		u, err := s.users.Resolve(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &UserNotFoundError{UserID: id}
			}
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func inviteeRows(reservationID uuid.UUID, actorID string, users []domain.User) []domain.Invitee {
	if len(users) == 0 {
		return nil
	}
	rows := make([]domain.Invitee, len(users))
	for i, u := range users {
		rows[i] = domain.Invitee{
			ReservationID: reservationID,
			UserID:        u.ID,
			Valid:         true,
			CreatedBy:     actorID,
		}
	}
	return rows
}

type UpdateInvitationInput struct {
	ReservationID uuid.UUID
	InviteeIDs    []string
	MeetingLink   string
	Notes         string
	ActorID       string
}

// UpdateInvitation replaces a reservation's guest list wholesale: the
// existing invitee collection is discarded and rebuilt from the new id list,
// through the same all-or-nothing resolution as creation. Link and notes are
// overwritten along with it.
func (s *Service) UpdateInvitation(ctx context.Context, in UpdateInvitationInput) (domain.Invitation, []domain.Invitee, error) {
	if in.ReservationID == uuid.Nil {
		return domain.Invitation{}, nil, validationError("reservation_id is required")
	}
	if in.ActorID == "" {
		return domain.Invitation{}, nil, validationError("actor_id is required")
	}

	res, err := s.reservations.Get(ctx, in.ReservationID, false)
	if err != nil {
		return domain.Invitation{}, nil, err
	}

	users, err := s.resolveInvitees(ctx, in.InviteeIDs)
	if err != nil {
		return domain.Invitation{}, nil, err
	}

	inv := domain.Invitation{
		ReservationID: in.ReservationID,
		MeetingLink:   in.MeetingLink,
		Notes:         in.Notes,
		Valid:         true,
	}
	inv.StampCreated(res.CreatedBy)
	inv.StampModified(in.ActorID)

	rows := inviteeRows(in.ReservationID, in.ActorID, users)

	err = s.reservations.InBookingTransaction(ctx, res.EstablishmentID, func(ctx context.Context, tx store.BookingTx) error {
		saved, err := tx.SaveInvitation(ctx, inv)
		if err != nil {
			return err
		}
		inv = saved
		return tx.ReplaceInvitees(ctx, in.ReservationID, rows)
	})
	if err != nil {
		return domain.Invitation{}, nil, err
	}

	s.log.InfoContext(ctx, "invitation updated",
		slog.String("reservation_id", in.ReservationID.String()),
		slog.String("actor_id", in.ActorID),
		slog.Int("invitees", len(rows)),
	)

	s.fire(ctx, func(ctx context.Context) {
		s.notifier.ReservationModified(ctx, res)
	})
	return inv, rows, nil
}

// GetInvitation is the default, soft-delete-filtered lookup.
func (s *Service) GetInvitation(ctx context.Context, reservationID uuid.UUID) (domain.Invitation, []domain.Invitee, error) {
	if reservationID == uuid.Nil {
		return domain.Invitation{}, nil, validationError("reservation_id is required")
	}
	return s.invitations.Get(ctx, reservationID, false)
}

// InvitationHistory retrieves an invitation even after its reservation was
// cancelled. It is the one lookup that bypasses the soft-delete filter, so
// "why was I invited" questions stay answerable for past and cancelled
// bookings.
func (s *Service) InvitationHistory(ctx context.Context, reservationID uuid.UUID) (domain.Invitation, []domain.Invitee, error) {
	if reservationID == uuid.Nil {
		return domain.Invitation{}, nil, validationError("reservation_id is required")
	}
	return s.invitations.Get(ctx, reservationID, true)
}

// ReattachInvitation writes an invitation loaded through InvitationHistory
// back into storage. The upsert is keyed by the reservation id, so saving the
// same invitation twice leaves one row.
func (s *Service) ReattachInvitation(ctx context.Context, inv domain.Invitation, actorID string) (domain.Invitation, error) {
	if inv.ReservationID == uuid.Nil {
		return domain.Invitation{}, validationError("reservation_id is required")
	}
	if actorID == "" {
		return domain.Invitation{}, validationError("actor_id is required")
	}
	inv.StampModified(actorID)
	return s.invitations.Upsert(ctx, inv)
}
