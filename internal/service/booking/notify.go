package booking

import (
	"context"
	"log/slog"

	"reservas/internal/domain"
)

// Notifier is the outbound side channel for booking events. Implementations
// are fire-and-forget: they log their own failures and never surface them to
// the booking caller. Mail composition and delivery live outside this
// service.
type Notifier interface {
	ReservationCreated(ctx context.Context, r domain.Reservation, invitees []domain.Invitee)
	ReservationModified(ctx context.Context, r domain.Reservation)
	ReservationCancelled(ctx context.Context, r domain.Reservation, recipientEmails []string)
}

// LogNotifier records booking events in the service log. It stands in where
// no mail gateway is wired up.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log.With(slog.String("component", "booking.notifier"))}
}

func (n *LogNotifier) ReservationCreated(ctx context.Context, r domain.Reservation, invitees []domain.Invitee) {
	n.log.InfoContext(ctx, "reservation created",
		slog.String("reservation_id", r.ID.String()),
		slog.String("user_id", r.UserID),
		slog.Time("starts_at", r.StartsAt),
		slog.Int("invitees", len(invitees)),
	)
}

func (n *LogNotifier) ReservationModified(ctx context.Context, r domain.Reservation) {
	n.log.InfoContext(ctx, "reservation modified",
		slog.String("reservation_id", r.ID.String()),
		slog.String("user_id", r.UserID),
	)
}

func (n *LogNotifier) ReservationCancelled(ctx context.Context, r domain.Reservation, recipientEmails []string) {
	n.log.InfoContext(ctx, "reservation cancelled",
		slog.String("reservation_id", r.ID.String()),
		slog.String("user_id", r.UserID),
		slog.Int("recipients", len(recipientEmails)),
	)
}

// fire dispatches a notification without blocking the booking response. The
// context is detached so an already-answered request cannot cancel the
// notification mid-flight.
func (s *Service) fire(ctx context.Context, send func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notifier panicked", slog.Any("panic", r))
			}
		}()
		send(ctx)
	}()
}
