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

// EstablishmentRepo only reads. Establishments and their windows are written
// by the admin surface, never by the booking service.
type EstablishmentRepo struct {
	db *bun.DB
}

func NewEstablishmentRepo(db *bun.DB) *EstablishmentRepo {
	return &EstablishmentRepo{db: db}
}

func (r *EstablishmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Establishment, error) {
	var e domain.Establishment
	err := r.db.NewSelect().
		Model(&e).
		Relation("Windows", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("day_of_week ASC, start_time ASC")
		}).
		Where("id = ?", id).
		Where("active").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Establishment{}, store.ErrNotFound
		}
		return domain.Establishment{}, err
	}
	return e, nil
}

func (r *EstablishmentRepo) ListWindows(ctx context.Context, establishmentID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	var rows []domain.AvailabilityWindow
	err := r.db.NewSelect().
		Model(&rows).
		Where("establishment_id = ?", establishmentID).
		OrderExpr("day_of_week ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
