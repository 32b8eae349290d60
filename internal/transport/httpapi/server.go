package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reservas/internal/domain"
	"reservas/internal/service/booking"
	"reservas/internal/store"
)

type bookingService interface {
	CreateReservation(ctx context.Context, in booking.CreateReservationInput) (booking.CreateReservationResult, error)
	AvailableSlots(ctx context.Context, establishmentID uuid.UUID, date time.Time) ([]domain.Slot, error)
	ListUserReservations(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Reservation, error)
	ListEstablishmentReservations(ctx context.Context, establishmentID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Reservation, error)
	UserAgenda(ctx context.Context, userID string, windowStart, windowEnd time.Time) (booking.Agenda, error)
	CancelReservation(ctx context.Context, reservationID uuid.UUID, actorID string) error
	UpdateInvitation(ctx context.Context, in booking.UpdateInvitationInput) (domain.Invitation, []domain.Invitee, error)
	GetInvitation(ctx context.Context, reservationID uuid.UUID) (domain.Invitation, []domain.Invitee, error)
	InvitationHistory(ctx context.Context, reservationID uuid.UUID) (domain.Invitation, []domain.Invitee, error)
}

type Server struct {
	svc bookingService
	log *slog.Logger
}

func NewServer(svc bookingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "httpapi")),
	}
}

// Router wires all routes plus the metrics middleware. The registerer is
// injectable so tests can use a private registry.
func (s *Server) Router(reg prometheus.Registerer, gatherer prometheus.Gatherer) *mux.Router {
	m := newMetrics(reg)

	r := mux.NewRouter()
	r.Use(m.middleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/establishments/{id}/reservations", s.handleCreateReservation).Methods(http.MethodPost)
	v1.HandleFunc("/establishments/{id}/reservations", s.handleListEstablishmentReservations).Methods(http.MethodGet)
	v1.HandleFunc("/establishments/{id}/slots", s.handleSlots).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}/reservations", s.handleListUserReservations).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}/agenda", s.handleUserAgenda).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}", s.handleCancelReservation).Methods(http.MethodDelete)
	v1.HandleFunc("/reservations/{id}/invitation", s.handleGetInvitation).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}/invitation", s.handleUpdateInvitation).Methods(http.MethodPut)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createReservationRequest struct {
	UserID      string   `json:"user_id"`
	StartsAt    string   `json:"starts_at"`
	EndTime     string   `json:"end_time,omitempty"`
	InviteeIDs  []string `json:"invitee_ids,omitempty"`
	MeetingLink string   `json:"meeting_link,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type reservationPayload struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	EstablishmentID string  `json:"establishment_id"`
	StartsAt        string  `json:"starts_at"`
	EndTime         *string `json:"end_time,omitempty"`
	Valid           bool    `json:"valid"`
}

type invitationPayload struct {
	ReservationID string   `json:"reservation_id"`
	MeetingLink   string   `json:"meeting_link,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Valid         bool     `json:"valid"`
	InviteeIDs    []string `json:"invitee_ids"`
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CreateReservation"))

	establishmentID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, log, http.StatusBadRequest, "invalid request body")
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		s.respondError(w, log, http.StatusBadRequest, "starts_at must be RFC 3339")
		return
	}

	in := booking.CreateReservationInput{
		UserID:          req.UserID,
		EstablishmentID: establishmentID,
		StartsAt:        startsAt,
		InviteeIDs:      req.InviteeIDs,
		MeetingLink:     req.MeetingLink,
		Notes:           req.Notes,
	}
	if req.EndTime != "" {
		end, err := domain.ParseTimeOfDay(req.EndTime)
		if err != nil {
			s.respondError(w, log, http.StatusBadRequest, "end_time must be HH:MM")
			return
		}
		in.EndTime = &end
	}

	out, err := s.svc.CreateReservation(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}

	resp := struct {
		Reservation reservationPayload `json:"reservation"`
		Invitation  *invitationPayload `json:"invitation,omitempty"`
	}{Reservation: toReservationPayload(out.Reservation)}
	if out.Invitation != nil {
		inv := toInvitationPayload(*out.Invitation, out.Invitees)
		resp.Invitation = &inv
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "Slots"))

	establishmentID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, log, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	slots, err := s.svc.AvailableSlots(r.Context(), establishmentID, date)
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}

	type slotPayload struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Label string `json:"label"`
	}
	out := make([]slotPayload, 0, len(slots))
	for _, sl := range slots {
		out = append(out, slotPayload{Start: sl.Start.String(), End: sl.End.String(), Label: sl.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format("2006-01-02"),
		"slots": out,
	})
}

func (s *Server) handleListUserReservations(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ListUserReservations"))

	userID := mux.Vars(r)["id"]
	windowStart, windowEnd, ok := s.queryWindow(w, r, log)
	if !ok {
		return
	}

	rows, err := s.svc.ListUserReservations(r.Context(), userID, windowStart, windowEnd)
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": toReservationPayloads(rows)})
}

func (s *Server) handleListEstablishmentReservations(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ListEstablishmentReservations"))

	establishmentID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	windowStart, windowEnd, ok := s.queryWindow(w, r, log)
	if !ok {
		return
	}

	rows, err := s.svc.ListEstablishmentReservations(r.Context(), establishmentID, windowStart, windowEnd)
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": toReservationPayloads(rows)})
}

func (s *Server) handleUserAgenda(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "UserAgenda"))

	userID := mux.Vars(r)["id"]
	windowStart, windowEnd, ok := s.queryWindow(w, r, log)
	if !ok {
		return
	}

	agenda, err := s.svc.UserAgenda(r.Context(), userID, windowStart, windowEnd)
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"past":     toReservationPayloads(agenda.Past),
		"upcoming": toReservationPayloads(agenda.Upcoming),
	})
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CancelReservation"))

	reservationID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	actorID := r.URL.Query().Get("actor_id")

	if err := s.svc.CancelReservation(r.Context(), reservationID, actorID); err != nil {
		s.respondServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateInvitationRequest struct {
	ActorID     string   `json:"actor_id"`
	InviteeIDs  []string `json:"invitee_ids"`
	MeetingLink string   `json:"meeting_link,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (s *Server) handleUpdateInvitation(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "UpdateInvitation"))

	reservationID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, log, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, invitees, err := s.svc.UpdateInvitation(r.Context(), booking.UpdateInvitationInput{
		ReservationID: reservationID,
		InviteeIDs:    req.InviteeIDs,
		MeetingLink:   req.MeetingLink,
		Notes:         req.Notes,
		ActorID:       req.ActorID,
	})
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationPayload(inv, invitees))
}

func (s *Server) handleGetInvitation(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "GetInvitation"))

	reservationID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var (
		inv      domain.Invitation
		invitees []domain.Invitee
		err      error
	)
	if r.URL.Query().Get("include_invalid") == "true" {
		inv, invitees, err = s.svc.InvitationHistory(r.Context(), reservationID)
	} else {
		inv, invitees, err = s.svc.GetInvitation(r.Context(), reservationID)
	}
	if err != nil {
		s.respondServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationPayload(inv, invitees))
}

func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		s.respondError(w, s.log, http.StatusBadRequest, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) queryWindow(w http.ResponseWriter, r *http.Request, log *slog.Logger) (time.Time, time.Time, bool) {
	windowStart, err := time.Parse(time.RFC3339, r.URL.Query().Get("window_start"))
	if err != nil {
		s.respondError(w, log, http.StatusBadRequest, "window_start must be RFC 3339")
		return time.Time{}, time.Time{}, false
	}
	windowEnd, err := time.Parse(time.RFC3339, r.URL.Query().Get("window_end"))
	if err != nil {
		s.respondError(w, log, http.StatusBadRequest, "window_end must be RFC 3339")
		return time.Time{}, time.Time{}, false
	}
	return windowStart, windowEnd, true
}

// respondServiceError translates service and store errors into HTTP codes.
func (s *Server) respondServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		s.respondError(w, log, http.StatusBadRequest, vErr.Error())
		return
	}
	var nfErr *booking.UserNotFoundError
	if errors.As(err, &nfErr) {
		s.respondError(w, log, http.StatusUnprocessableEntity, nfErr.Error())
		return
	}
	switch {
	case errors.Is(err, booking.ErrOutsideAvailability):
		s.respondError(w, log, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, log, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		s.respondError(w, log, http.StatusConflict, "conflict")
	default:
		log.Error("request failed", slog.Any("err", err))
		s.respondError(w, log, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) respondError(w http.ResponseWriter, log *slog.Logger, code int, msg string) {
	if code >= 400 && code < 500 {
		log.Warn("request rejected", slog.Int("code", code), slog.String("reason", msg))
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func toReservationPayload(r domain.Reservation) reservationPayload {
	p := reservationPayload{
		ID:              r.ID.String(),
		UserID:          r.UserID,
		EstablishmentID: r.EstablishmentID.String(),
		StartsAt:        r.StartsAt.Format(time.RFC3339),
		Valid:           r.Valid,
	}
	if r.EndTime != nil {
		end := r.EndTime.String()
		p.EndTime = &end
	}
	return p
}

func toReservationPayloads(rows []domain.Reservation) []reservationPayload {
	out := make([]reservationPayload, 0, len(rows))
	for _, r := range rows {
		out = append(out, toReservationPayload(r))
	}
	return out
}

func toInvitationPayload(inv domain.Invitation, invitees []domain.Invitee) invitationPayload {
	ids := make([]string, 0, len(invitees))
	for _, g := range invitees {
		ids = append(ids, g.UserID)
	}
	return invitationPayload{
		ReservationID: inv.ReservationID.String(),
		MeetingLink:   inv.MeetingLink,
		Notes:         inv.Notes,
		Valid:         inv.Valid,
		InviteeIDs:    ids,
	}
}
