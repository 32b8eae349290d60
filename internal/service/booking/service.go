package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reservas/internal/domain"
	"reservas/internal/store"
)

// Service owns the booking flow: it validates candidate reservations against
// published availability, persists reservations with their invitations in one
// transaction, and triggers notifications after commit.
type Service struct {
	establishments store.EstablishmentRepository
	reservations   store.ReservationRepository
	invitations    store.InvitationRepository
	users          store.UserLookup
	notifier       Notifier
	log            *slog.Logger

	// now is the injected time source; listing splits past from upcoming
	// with it. Availability validation never consults it.
	now func() time.Time
}

func NewService(
	establishments store.EstablishmentRepository,
	reservations store.ReservationRepository,
	invitations store.InvitationRepository,
	users store.UserLookup,
	notifier Notifier,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		establishments: establishments,
		reservations:   reservations,
		invitations:    invitations,
		users:          users,
		notifier:       notifier,
		log:            log.With(slog.String("component", "booking.service")),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type CreateReservationInput struct {
	UserID          string
	EstablishmentID uuid.UUID
	StartsAt        time.Time
	EndTime         *domain.TimeOfDay
	InviteeIDs      []string
	MeetingLink     string
	Notes           string
}

type CreateReservationResult struct {
	Reservation domain.Reservation
	Invitation  *domain.Invitation
	Invitees    []domain.Invitee
}

// CreateReservation books a slot. The reservation insert and the invitee
// resolution/insert run inside one transaction: an unresolvable invitee id
// discards the reservation too, never leaving it orphaned without its
// invitation.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (CreateReservationResult, error) {
	if in.UserID == "" {
		return CreateReservationResult{}, validationError("user_id is required")
	}
	if in.EstablishmentID == uuid.Nil {
		return CreateReservationResult{}, validationError("establishment_id is required")
	}
	if in.StartsAt.IsZero() {
		return CreateReservationResult{}, validationError("starts_at is required")
	}
	if in.EndTime != nil && !in.EndTime.After(domain.TimeOfDayFrom(in.StartsAt)) {
		return CreateReservationResult{}, validationError("end_time must be after the reservation start")
	}

	est, err := s.establishments.Get(ctx, in.EstablishmentID)
	if err != nil {
		return CreateReservationResult{}, err
	}

	if err := validateWithinAvailability(est.Windows, in.StartsAt); err != nil {
		return CreateReservationResult{}, err
	}

	invitees, err := s.resolveInvitees(ctx, in.InviteeIDs)
	if err != nil {
		return CreateReservationResult{}, err
	}

	reservation := domain.Reservation{
		UserID:          in.UserID,
		EstablishmentID: in.EstablishmentID,
		StartsAt:        in.StartsAt.UTC(),
		EndTime:         in.EndTime,
	}
	reservation.StampCreated(in.UserID)

	wantInvitation := len(invitees) > 0 || in.MeetingLink != "" || in.Notes != ""

	var result CreateReservationResult
	err = s.reservations.InBookingTransaction(ctx, in.EstablishmentID, func(ctx context.Context, tx store.BookingTx) error {
		created, err := tx.CreateReservation(ctx, reservation)
		if err != nil {
			return err
		}
		result.Reservation = created

		if !wantInvitation {
			return nil
		}

		inv := domain.Invitation{
			ReservationID: created.ID,
			MeetingLink:   in.MeetingLink,
			Notes:         in.Notes,
		}
		inv.StampCreated(in.UserID)

		rows := inviteeRows(created.ID, in.UserID, invitees)
		savedInv, err := tx.CreateInvitation(ctx, inv, rows)
		if err != nil {
			return err
		}
		result.Invitation = &savedInv
		result.Invitees = rows
		return nil
	})
	if err != nil {
		return CreateReservationResult{}, err
	}

	s.log.InfoContext(ctx, "reservation created",
		slog.String("reservation_id", result.Reservation.ID.String()),
		slog.String("establishment_id", in.EstablishmentID.String()),
		slog.String("user_id", in.UserID),
		slog.Int("invitees", len(result.Invitees)),
	)

	res := result.Reservation
	rows := result.Invitees
	s.fire(ctx, func(ctx context.Context) {
		s.notifier.ReservationCreated(ctx, res, rows)
	})

	return result, nil
}

// validateWithinAvailability accepts a start time iff some published window
// for that weekday covers it (half-open, so a booking exactly at a window's
// end is rejected). The weekday and minute are read from startsAt's own
// location: windows are local wall-clock schedules, so the caller sends the
// establishment's local time and only the persisted instant is normalized to
// UTC. It deliberately never looks at existing reservations or the
// establishment's capacity: double-booking a slot is possible and closing
// that gap is a separate decision.
func validateWithinAvailability(windows []domain.AvailabilityWindow, startsAt time.Time) error {
	day := domain.DayOfWeekFrom(startsAt)
	at := domain.TimeOfDayFrom(startsAt)
	for _, w := range windows {
		if w.Covers(day, at) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", ErrOutsideAvailability, day, at)
}

// AvailableSlots decomposes the establishment's windows for the given date
// into bookable slots. An establishment without a configured slot duration
// takes free-form bookings and exposes no grid.
func (s *Service) AvailableSlots(ctx context.Context, establishmentID uuid.UUID, date time.Time) ([]domain.Slot, error) {
	if establishmentID == uuid.Nil {
		return nil, validationError("establishment_id is required")
	}

	est, err := s.establishments.Get(ctx, establishmentID)
	if err != nil {
		return nil, err
	}

	day := domain.DayOfWeekFrom(date)
	var out []domain.Slot
	for _, w := range est.Windows {
		if w.DayOfWeek != day {
			continue
		}
		out = append(out, domain.EstablishmentSlots(est, w)...)
	}
	return out, nil
}

func (s *Service) ListUserReservations(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Reservation, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	if !windowEnd.After(windowStart) {
		return nil, validationError("window_end must be after window_start")
	}
	return s.reservations.ListByUser(ctx, userID, windowStart.UTC(), windowEnd.UTC(), false)
}

func (s *Service) ListEstablishmentReservations(ctx context.Context, establishmentID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Reservation, error) {
	if establishmentID == uuid.Nil {
		return nil, validationError("establishment_id is required")
	}
	if !windowEnd.After(windowStart) {
		return nil, validationError("window_end must be after window_start")
	}
	return s.reservations.ListByEstablishment(ctx, establishmentID, windowStart.UTC(), windowEnd.UTC(), false)
}

type Agenda struct {
	Past     []domain.Reservation
	Upcoming []domain.Reservation
}

// UserAgenda lists a user's reservations split around the injected clock.
// Past versus upcoming is a derivation, not a persisted state.
func (s *Service) UserAgenda(ctx context.Context, userID string, windowStart, windowEnd time.Time) (Agenda, error) {
	rows, err := s.ListUserReservations(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return Agenda{}, err
	}

	now := s.now()
	var agenda Agenda
	for _, r := range rows {
		if r.StartsAt.Before(now) {
			agenda.Past = append(agenda.Past, r)
		} else {
			agenda.Upcoming = append(agenda.Upcoming, r)
		}
	}
	return agenda, nil
}

// CancelReservation soft-deletes a reservation and its invitation in
// lockstep, then notifies the requester and every invitee.
func (s *Service) CancelReservation(ctx context.Context, reservationID uuid.UUID, actorID string) error {
	if reservationID == uuid.Nil {
		return validationError("reservation_id is required")
	}
	if actorID == "" {
		return validationError("actor_id is required")
	}

	res, err := s.reservations.Get(ctx, reservationID, false)
	if err != nil {
		return err
	}

	recipients, err := s.cancellationRecipients(ctx, res)
	if err != nil {
		return err
	}

	err = s.reservations.InBookingTransaction(ctx, res.EstablishmentID, func(ctx context.Context, tx store.BookingTx) error {
		return tx.CancelReservation(ctx, reservationID, actorID)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "reservation cancelled",
		slog.String("reservation_id", reservationID.String()),
		slog.String("actor_id", actorID),
	)

	s.fire(ctx, func(ctx context.Context) {
		s.notifier.ReservationCancelled(ctx, res, recipients)
	})
	return nil
}

func (s *Service) cancellationRecipients(ctx context.Context, res domain.Reservation) ([]string, error) {
	recipients := make([]string, 0, 4)
	if owner, err := s.users.Resolve(ctx, res.UserID); err == nil {
		recipients = append(recipients, owner.Email)
	}

	_, invitees, err := s.invitations.Get(ctx, res.ID, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return recipients, nil
		}
		return nil, err
	}
	for _, inv := range invitees {
		if u, err := s.users.Resolve(ctx, inv.UserID); err == nil {
			recipients = append(recipients, u.Email)
		}
	}
	return recipients, nil
}
