// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package dbtest holds behaviour checks shared by every store backend.
package dbtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

func TestEventStore(t *testing.T, store db.EventStore) {
	t.Helper()
	ctx := context.Background()

	event := &model.Event{
		Title:  "Summer Gala",
		Kind:   model.EventKindSeminar,
		Date:   time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC),
		Status: model.EventStatusActive,
		Location: &model.Location{
			Name: "Hall A",
			City: "Somewhere",
		},
	}
	id, err := store.CreateEvent(ctx, event)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id == uuid.Nil || id != event.ID {
		t.Fatalf("CreateEvent returned id %s, event has %s", id, event.ID)
	}
	if event.CreatedAt == nil {
		t.Error("CreatedAt not set")
	}

	got, err := store.GetEventByID(ctx, id)
	if err != nil {
		t.Fatalf("GetEventByID: %v", err)
	}
	if got.Title != "Summer Gala" || got.Location == nil || got.Location.Name != "Hall A" {
		t.Errorf("unexpected event: %+v", got)
	}

	got.Title = "Winter Gala"
	if err := store.UpdateEvent(ctx, got); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	got, err = store.GetEventByID(ctx, id)
	if err != nil {
		t.Fatalf("GetEventByID: %v", err)
	}
	if got.Title != "Winter Gala" {
		t.Errorf("title = %q, want %q", got.Title, "Winter Gala")
	}

	if _, err := store.GetEventByID(ctx, uuid.New()); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("GetEventByID unknown: got %v, want ErrNotFound", err)
	}
	if err := store.UpdateEvent(ctx, &model.Event{ID: uuid.New()}); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("UpdateEvent unknown: got %v, want ErrNotFound", err)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("ListEvents returned %d events, want 1", len(events))
	}
}

func TestGuestStore(t *testing.T, store db.GuestStore) {
	t.Helper()
	ctx := context.Background()

	eventA, eventB := uuid.New(), uuid.New()
	john := &model.Guest{
		EventID:          eventA,
		FirstName:        "John",
		LastName:         "Doe",
		Email:            "john@example.com",
		Type:             model.GuestTypeRegular,
		Response:         model.ResponsePending,
		AttendanceStatus: model.AttendanceNotAdmitted,
		SeatNumber:       "A1",
		Token:            "TOKEN-JOHN",
		Images:           []string{"img/john.png"},
		Status:           model.GuestStatusActive,
	}
	jane := &model.Guest{
		EventID:          eventB,
		FirstName:        "Jane",
		LastName:         "Roe",
		Email:            "jane@example.com",
		Type:             model.GuestTypeSponsor,
		Response:         model.ResponseAccepted,
		AttendanceStatus: model.AttendanceNotAdmitted,
		Token:            "TOKEN-JANE",
		Status:           model.GuestStatusActive,
	}
	for _, g := range []*model.Guest{john, jane} {
		if _, err := store.CreateGuest(ctx, g); err != nil {
			t.Fatalf("CreateGuest %s: %v", g.FirstName, err)
		}
	}

	got, err := store.GetGuestByID(ctx, john.ID)
	if err != nil {
		t.Fatalf("GetGuestByID: %v", err)
	}
	if got.FullName() != "John Doe" || got.SeatNumber != "A1" {
		t.Errorf("unexpected guest: %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "img/john.png" {
		t.Errorf("images = %v", got.Images)
	}

	byEvent, err := store.ListGuestsByEvent(ctx, eventA)
	if err != nil {
		t.Fatalf("ListGuestsByEvent: %v", err)
	}
	if len(byEvent) != 1 || byEvent[0].ID != john.ID {
		t.Errorf("ListGuestsByEvent = %v, want only john", byEvent)
	}

	all, err := store.ListGuests(ctx)
	if err != nil {
		t.Fatalf("ListGuests: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListGuests returned %d guests, want 2", len(all))
	}

	tokenCases := []struct {
		token string
		want  int
	}{
		{token: "TOKEN-JOHN", want: 1},
		{token: "TOKEN-UNKNOWN", want: 0},
		{token: "", want: 0},
	}
	for _, tc := range tokenCases {
		guests, err := store.GetGuestsByToken(ctx, tc.token)
		if err != nil {
			t.Fatalf("GetGuestsByToken(%q): %v", tc.token, err)
		}
		if guests == nil {
			t.Errorf("GetGuestsByToken(%q) returned nil, want empty list", tc.token)
		}
		if len(guests) != tc.want {
			t.Errorf("GetGuestsByToken(%q) returned %d guests, want %d", tc.token, len(guests), tc.want)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	got.AttendanceStatus = model.AttendanceAdmitted
	got.AdmittedAt = &now
	got.Token = "TOKEN-JOHN-2"
	if err := store.UpdateGuest(ctx, got); err != nil {
		t.Fatalf("UpdateGuest: %v", err)
	}
	updated, err := store.GetGuestByID(ctx, john.ID)
	if err != nil {
		t.Fatalf("GetGuestByID: %v", err)
	}
	if !updated.Admitted() || updated.AdmittedAt == nil {
		t.Errorf("guest not admitted after update: %+v", updated)
	}
	if old, _ := store.GetGuestsByToken(ctx, "TOKEN-JOHN"); len(old) != 0 {
		t.Errorf("old token still resolves to %d guests", len(old))
	}
	if cur, _ := store.GetGuestsByToken(ctx, "TOKEN-JOHN-2"); len(cur) != 1 {
		t.Errorf("new token resolves to %d guests, want 1", len(cur))
	}

	if _, err := store.GetGuestByID(ctx, uuid.New()); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("GetGuestByID unknown: got %v, want ErrNotFound", err)
	}
	if err := store.UpdateGuest(ctx, &model.Guest{ID: uuid.New()}); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("UpdateGuest unknown: got %v, want ErrNotFound", err)
	}
}

func TestRSVPStore(t *testing.T, store db.RSVPStore) {
	t.Helper()
	ctx := context.Background()

	eventID, guestA, guestB := uuid.New(), uuid.New(), uuid.New()
	entries := []*model.RSVP{
		{EventID: eventID, GuestID: guestA, Response: model.ResponseAccepted, Message: "see you"},
		{EventID: eventID, GuestID: guestA, Response: model.ResponseDeclined},
		{EventID: eventID, GuestID: guestB, Response: model.ResponseAccepted},
	}
	for _, r := range entries {
		id, err := store.CreateRSVP(ctx, r)
		if err != nil {
			t.Fatalf("CreateRSVP: %v", err)
		}
		if id == uuid.Nil {
			t.Fatal("CreateRSVP returned nil id")
		}
	}

	all, err := store.ListRSVPs(ctx)
	if err != nil {
		t.Fatalf("ListRSVPs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRSVPs returned %d entries, want 3", len(all))
	}

	history, err := store.ListRSVPsByGuest(ctx, guestA)
	if err != nil {
		t.Fatalf("ListRSVPsByGuest: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("ListRSVPsByGuest returned %d entries, want 2", len(history))
	}
	for _, r := range history {
		if r.GuestID != guestA {
			t.Errorf("entry for guest %s in history of %s", r.GuestID, guestA)
		}
	}
}
