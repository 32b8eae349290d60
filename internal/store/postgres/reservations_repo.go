package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"reservas/internal/domain"
	"reservas/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID, includeInvalid bool) (domain.Reservation, error) {
	var row domain.Reservation
	q := r.db.NewSelect().
		Model(&row).
		Where("id = ?", id)
	if !includeInvalid {
		q = q.Where("valid")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return row, nil
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID string, windowStart, windowEnd time.Time, includeInvalid bool) ([]domain.Reservation, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	}, windowStart, windowEnd, includeInvalid)
}

func (r *ReservationRepo) ListByEstablishment(ctx context.Context, establishmentID uuid.UUID, windowStart, windowEnd time.Time, includeInvalid bool) ([]domain.Reservation, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("establishment_id = ?", establishmentID)
	}, windowStart, windowEnd, includeInvalid)
}

func (r *ReservationRepo) list(ctx context.Context, scope func(*bun.SelectQuery) *bun.SelectQuery, windowStart, windowEnd time.Time, includeInvalid bool) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	q := scope(r.db.NewSelect().Model(&rows)).
		Where("starts_at >= ?", windowStart).
		Where("starts_at < ?", windowEnd).
		OrderExpr("starts_at ASC")
	if !includeInvalid {
		q = q.Where("valid")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

// InBookingTransaction serializes booking writes per establishment with an
// advisory lock, then hands the transaction to fn. Everything fn writes
// commits or rolls back as one unit.
func (r *ReservationRepo) InBookingTransaction(ctx context.Context, establishmentID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockEstablishment(ctx, tx, establishmentID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func lockEstablishment(ctx context.Context, tx bun.Tx, establishmentID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", establishmentID.String()).Exec(ctx)
	return err
}

func (t bookingTx) CreateReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	m := res
	m.Valid = true
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Reservation{}, store.ErrConflict
		}
		return domain.Reservation{}, err
	}
	return m, nil
}

func (t bookingTx) CreateInvitation(ctx context.Context, inv domain.Invitation, invitees []domain.Invitee) (domain.Invitation, error) {
	m := inv
	m.Valid = true
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Invitation{}, store.ErrConflict
		}
		return domain.Invitation{}, err
	}

	if len(invitees) > 0 {
		rows := make([]domain.Invitee, len(invitees))
		for i, inv := range invitees {
			rows[i] = inv
			rows[i].Valid = true
		}
		if _, err := t.tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return domain.Invitation{}, err
		}
	}
	return m, nil
}

func (t bookingTx) SaveInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	m := inv
	_, err := t.tx.NewInsert().
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

func (t bookingTx) ReplaceInvitees(ctx context.Context, reservationID uuid.UUID, invitees []domain.Invitee) error {
	_, err := t.tx.NewDelete().
		Model((*domain.Invitee)(nil)).
		Where("reservation_id = ?", reservationID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if len(invitees) == 0 {
		return nil
	}
	rows := make([]domain.Invitee, len(invitees))
	for i, inv := range invitees {
		rows[i] = inv
		rows[i].Valid = true
	}
	_, err = t.tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (t bookingTx) CancelReservation(ctx context.Context, id uuid.UUID, actorID string) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.Reservation)(nil)).
		Set("valid = FALSE").
		Set("updated_by = ?", actorID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("valid").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	// The invitation and its invitees go invalid in lockstep with the
	// reservation; the rows stay behind for history.
	_, err = t.tx.NewUpdate().
		Model((*domain.Invitation)(nil)).
		Set("valid = FALSE").
		Set("updated_by = ?", actorID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("reservation_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	_, err = t.tx.NewUpdate().
		Model((*domain.Invitee)(nil)).
		Set("valid = FALSE").
		Where("reservation_id = ?", id).
		Exec(ctx)
	return err
}
