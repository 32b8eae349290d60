package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"reservas/internal/store"
)

func createReservationWithGuests(t *testing.T, svc *Service, n *fakeNotifier, guests ...string) CreateReservationResult {
	t.Helper()
	out, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID:          "alice",
		EstablishmentID: testEstablishmentID,
		StartsAt:        mondayAt(t, "10:00"),
		InviteeIDs:      guests,
	})
	if err != nil {
		t.Fatalf("CreateReservation error: %v", err)
	}
	n.wait(t, "created")
	return out
}

func TestUpdateInvitation_ClearThenRecreate(t *testing.T) {
	svc, m, n := newTestService(t)
	out := createReservationWithGuests(t, svc, n, "bob")

	inv, invitees, err := svc.UpdateInvitation(context.Background(), UpdateInvitationInput{
		ReservationID: out.Reservation.ID,
		InviteeIDs:    []string{"carol"},
		MeetingLink:   "https://meet.example.com/new",
		ActorID:       "alice",
	})
	if err != nil {
		t.Fatalf("UpdateInvitation error: %v", err)
	}
	n.wait(t, "modified")

	if inv.MeetingLink != "https://meet.example.com/new" {
		t.Fatalf("meeting link = %q", inv.MeetingLink)
	}
	if len(invitees) != 1 || invitees[0].UserID != "carol" {
		t.Fatalf("invitees = %v, want carol only", invitees)
	}

	// The old guest list is gone, not merged.
	stored := m.invitees[out.Reservation.ID]
	if len(stored) != 1 || stored[0].UserID != "carol" {
		t.Fatalf("stored invitees = %v, want carol only", stored)
	}
}

func TestUpdateInvitation_UnresolvableGuestKeepsOldList(t *testing.T) {
	svc, m, n := newTestService(t)
	out := createReservationWithGuests(t, svc, n, "bob")

	_, _, err := svc.UpdateInvitation(context.Background(), UpdateInvitationInput{
		ReservationID: out.Reservation.ID,
		InviteeIDs:    []string{"carol", "ghost"},
		ActorID:       "alice",
	})
	var nfErr *UserNotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error = %v (%T), want *UserNotFoundError", err, err)
	}
	if nfErr.UserID != "ghost" {
		t.Fatalf("UserID = %q, want %q", nfErr.UserID, "ghost")
	}

	stored := m.invitees[out.Reservation.ID]
	if len(stored) != 1 || stored[0].UserID != "bob" {
		t.Fatalf("stored invitees = %v, want bob untouched", stored)
	}
}

func TestUpdateInvitation_EmptyListClearsGuests(t *testing.T) {
	svc, m, n := newTestService(t)
	out := createReservationWithGuests(t, svc, n, "bob", "carol")

	_, invitees, err := svc.UpdateInvitation(context.Background(), UpdateInvitationInput{
		ReservationID: out.Reservation.ID,
		ActorID:       "alice",
	})
	if err != nil {
		t.Fatalf("UpdateInvitation error: %v", err)
	}
	n.wait(t, "modified")

	if len(invitees) != 0 {
		t.Fatalf("invitees = %v, want none", invitees)
	}
	if stored := m.invitees[out.Reservation.ID]; len(stored) != 0 {
		t.Fatalf("stored invitees = %v, want none", stored)
	}
}

func TestUpdateInvitation_CancelledReservationRejected(t *testing.T) {
	svc, _, n := newTestService(t)
	out := createReservationWithGuests(t, svc, n, "bob")

	if err := svc.CancelReservation(context.Background(), out.Reservation.ID, "alice"); err != nil {
		t.Fatalf("CancelReservation error: %v", err)
	}
	n.wait(t, "cancelled")

	_, _, err := svc.UpdateInvitation(context.Background(), UpdateInvitationInput{
		ReservationID: out.Reservation.ID,
		InviteeIDs:    []string{"carol"},
		ActorID:       "alice",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, store.ErrNotFound)
	}
}

func TestReattachInvitation_UpsertIsIdempotent(t *testing.T) {
	svc, m, n := newTestService(t)
	out := createReservationWithGuests(t, svc, n, "bob")

	if err := svc.CancelReservation(context.Background(), out.Reservation.ID, "alice"); err != nil {
		t.Fatalf("CancelReservation error: %v", err)
	}
	n.wait(t, "cancelled")

	// Load through the bypass path, touch it, and save it back twice.
	inv, _, err := svc.InvitationHistory(context.Background(), out.Reservation.ID)
	if err != nil {
		t.Fatalf("InvitationHistory error: %v", err)
	}
	inv.Notes = "kept for the record"

	first, err := svc.ReattachInvitation(context.Background(), inv, "alice")
	if err != nil {
		t.Fatalf("ReattachInvitation error: %v", err)
	}
	second, err := svc.ReattachInvitation(context.Background(), inv, "alice")
	if err != nil {
		t.Fatalf("ReattachInvitation error: %v", err)
	}

	if first.ReservationID != second.ReservationID {
		t.Fatalf("reattach changed identity: %s vs %s", first.ReservationID, second.ReservationID)
	}
	if len(m.invitations) != 1 {
		t.Fatalf("stored invitations = %d, want 1", len(m.invitations))
	}
	if m.invitations[out.Reservation.ID].Notes != "kept for the record" {
		t.Fatalf("notes = %q", m.invitations[out.Reservation.ID].Notes)
	}
	if m.invitations[out.Reservation.ID].UpdatedBy != "alice" {
		t.Fatalf("updated_by = %q, want alice", m.invitations[out.Reservation.ID].UpdatedBy)
	}
}

func TestResolveInvitees_EmptyIDRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID:          "alice",
		EstablishmentID: testEstablishmentID,
		StartsAt:        mondayAt(t, "10:00"),
		InviteeIDs:      []string{"bob", ""},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
}

func TestGetInvitation_RequiresID(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.GetInvitation(context.Background(), uuid.Nil)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
}
