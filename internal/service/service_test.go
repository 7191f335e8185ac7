// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/db/jsondb"
	"github.com/quixsi/checkin/internal/model"
)

type recordingNotifier struct {
	mu         sync.Mutex
	rsvps      []string
	admissions []string
	err        error
}

func (r *recordingNotifier) NotifyRSVP(_ context.Context, _ *model.Event, guest *model.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rsvps = append(r.rsvps, guest.FullName())
	return r.err
}

func (r *recordingNotifier) NotifyAdmission(_ context.Context, _ *model.Event, guest *model.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admissions = append(r.admissions, guest.FullName())
	return r.err
}

type fixture struct {
	events   *EventService
	guests   *GuestService
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	eventStore, err := jsondb.NewEventStore(filepath.Join(dir, "events.json"))
	if err != nil {
		t.Fatal(err)
	}
	guestStore, err := jsondb.NewGuestStore(filepath.Join(dir, "guests.json"))
	if err != nil {
		t.Fatal(err)
	}
	rsvpStore, err := jsondb.NewRSVPStore(filepath.Join(dir, "rsvps.json"))
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		events:   NewEventService(eventStore),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	opts = append([]Option{WithNotifier(f.notifier), WithClock(func() time.Time { return f.now })}, opts...)
	f.guests = NewGuestService(eventStore, guestStore, rsvpStore, opts...)
	return f
}

func (f *fixture) event(t *testing.T, deadline *time.Time) *model.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), &model.Event{
		Title:        "Wedding of A and B",
		Kind:         model.EventKindWedding,
		Date:         time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
		RSVPDeadline: deadline,
	})
	if err != nil {
		t.Fatal(err)
	}
	return event
}

func (f *fixture) guest(t *testing.T, eventID uuid.UUID, first, last string) *model.Guest {
	t.Helper()
	guest, err := f.guests.CreateGuest(context.Background(), eventID, &model.Guest{FirstName: first, LastName: last})
	if err != nil {
		t.Fatal(err)
	}
	return guest
}

func TestEventService_Validation(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	late := date.Add(24 * time.Hour)

	tt := []struct {
		name      string
		event     *model.Event
		wantField string
	}{
		{name: "missing title", event: &model.Event{Date: date}, wantField: "title"},
		{name: "bad kind", event: &model.Event{Title: "x", Kind: "party", Date: date}, wantField: "kind"},
		{name: "missing date", event: &model.Event{Title: "x"}, wantField: "date"},
		{name: "deadline after date", event: &model.Event{Title: "x", Date: date, RSVPDeadline: &late}, wantField: "rsvp_deadline"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.events.CreateEvent(context.Background(), tc.event)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if _, ok := vErr.FieldErrors[tc.wantField]; !ok {
				t.Errorf("field errors %v miss %q", vErr.FieldErrors, tc.wantField)
			}
		})
	}

	event, err := f.events.CreateEvent(context.Background(), &model.Event{Title: " Seminar ", Date: date})
	if err != nil {
		t.Fatal(err)
	}
	if event.Kind != model.EventKindOther || event.Title != "Seminar" || event.Status != model.EventStatusActive {
		t.Errorf("unexpected defaults: %+v", event)
	}
}

func TestEventService_ArchiveAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.event(t, nil)
	b := f.event(t, nil)

	if err := f.events.ArchiveEvent(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	active, err := f.events.ListEvents(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("active events = %v", active)
	}
	all, _ := f.events.ListEvents(ctx, true)
	if len(all) != 2 {
		t.Errorf("all events = %d, want 2", len(all))
	}

	if _, err := f.events.UpdateEvent(ctx, &model.Event{ID: a.ID, Title: "x", Date: a.Date}); !errors.Is(err, ErrArchived) {
		t.Errorf("update archived event: got %v, want ErrArchived", err)
	}
	if _, err := f.events.GetEvent(ctx, uuid.New()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown event: got %v, want ErrEventNotFound", err)
	}
	if _, err := f.guests.CreateGuest(ctx, a.ID, &model.Guest{FirstName: "x"}); !errors.Is(err, ErrArchived) {
		t.Errorf("guest for archived event: got %v, want ErrArchived", err)
	}
}

func TestGuestService_CreateGuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil)

	tt := []struct {
		name      string
		in        *model.Guest
		wantPhone string
	}{
		{name: "regular drops phone", in: &model.Guest{FirstName: "John", Phone: "123"}, wantPhone: ""},
		{name: "sponsor keeps phone", in: &model.Guest{FirstName: "Jane", Type: model.GuestTypeSponsor, Phone: "123"}, wantPhone: "123"},
		{name: "entourage keeps phone", in: &model.Guest{FirstName: "Jim", Type: model.GuestTypeEntourage, Phone: "456"}, wantPhone: "456"},
	}
	tokens := map[string]bool{}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.AttendanceStatus = model.AttendanceAdmitted
			tc.in.Response = model.ResponseAccepted
			guest, err := f.guests.CreateGuest(ctx, event.ID, tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if guest.Phone != tc.wantPhone {
				t.Errorf("phone = %q, want %q", guest.Phone, tc.wantPhone)
			}
			if guest.Response != model.ResponsePending || guest.AttendanceStatus != model.AttendanceNotAdmitted {
				t.Errorf("unexpected initial state: %s %s", guest.Response, guest.AttendanceStatus)
			}
			if len(guest.Token) != 32 || tokens[guest.Token] {
				t.Errorf("token %q not fresh", guest.Token)
			}
			tokens[guest.Token] = true
		})
	}

	_, err := f.guests.CreateGuest(ctx, event.ID, &model.Guest{FirstName: "x", Email: "not-an-email"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["email"] == "" {
		t.Errorf("invalid email: got %v", err)
	}
}

func TestGuestService_GuestLimit(t *testing.T) {
	f := newFixture(t, WithGuestLimit(2))
	ctx := context.Background()
	event := f.event(t, nil)

	first := f.guest(t, event.ID, "A", "")
	f.guest(t, event.ID, "B", "")
	if _, err := f.guests.CreateGuest(ctx, event.ID, &model.Guest{FirstName: "C"}); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("got %v, want ErrLimitExceeded", err)
	}
	if err := f.guests.ArchiveGuest(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.guests.CreateGuest(ctx, event.ID, &model.Guest{FirstName: "C"}); err != nil {
		t.Errorf("archived guests must not count: %v", err)
	}
}

func TestGuestService_GuestsForAttendance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil)
	other := f.event(t, nil)

	john := f.guest(t, event.ID, "John", "Doe")
	jane := f.guest(t, event.ID, "Jane", "Roe")
	gone := f.guest(t, event.ID, "Gone", "Guest")
	f.guest(t, other.ID, "Elsewhere", "")
	if err := f.guests.ArchiveGuest(ctx, gone.ID); err != nil {
		t.Fatal(err)
	}

	guests, err := f.guests.GuestsForAttendance(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(guests) != 2 || guests[0].ID != john.ID || guests[1].ID != jane.ID {
		t.Errorf("GuestsForAttendance = %v, want john, jane", guests)
	}
	if _, err := f.guests.GuestsForAttendance(ctx, uuid.New()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown event: got %v", err)
	}
}

func TestGuestService_UpdateGuestAttendanceStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil)
	john := f.guest(t, event.ID, "John", "Doe")

	for i := 0; i < 2; i++ {
		if err := f.guests.UpdateGuestAttendanceStatus(ctx, john.ID, model.AttendanceAdmitted); err != nil {
			t.Fatalf("admit #%d: %v", i+1, err)
		}
	}
	got, err := f.guests.GetGuest(ctx, john.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Admitted() || got.AdmittedAt == nil || !got.AdmittedAt.Equal(f.now) {
		t.Errorf("guest after admission: %+v", got)
	}
	if len(f.notifier.admissions) != 1 {
		t.Errorf("admission notifications = %d, want 1", len(f.notifier.admissions))
	}

	if err := f.guests.UpdateGuestAttendanceStatus(ctx, john.ID, model.AttendanceNotAdmitted); err != nil {
		t.Fatal(err)
	}
	got, _ = f.guests.GetGuest(ctx, john.ID)
	if got.Admitted() || got.AdmittedAt != nil {
		t.Errorf("guest after reset: %+v", got)
	}

	var vErr *ValidationError
	if err := f.guests.UpdateGuestAttendanceStatus(ctx, john.ID, "present"); !errors.As(err, &vErr) {
		t.Errorf("invalid status: got %v", err)
	}
	if err := f.guests.UpdateGuestAttendanceStatus(ctx, uuid.New(), model.AttendanceAdmitted); !errors.Is(err, ErrGuestNotFound) {
		t.Errorf("unknown guest: got %v", err)
	}
}

func TestGuestService_NotifyFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("discord down")
	event := f.event(t, nil)
	john := f.guest(t, event.ID, "John", "Doe")

	if err := f.guests.UpdateGuestAttendanceStatus(context.Background(), john.ID, model.AttendanceAdmitted); err != nil {
		t.Errorf("notification error leaked: %v", err)
	}
}

func TestGuestService_GuestsByToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil)
	john := f.guest(t, event.ID, "John", "Doe")

	guests, err := f.guests.GuestsByToken(ctx, " "+john.Token+" ")
	if err != nil {
		t.Fatal(err)
	}
	if len(guests) != 1 || guests[0].ID != john.ID {
		t.Errorf("lookup = %v", guests)
	}

	guests, err = f.guests.GuestsByToken(ctx, "unknown")
	if err != nil || guests == nil || len(guests) != 0 {
		t.Errorf("unknown token: %v, %v", guests, err)
	}

	if err := f.guests.ArchiveGuest(ctx, john.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.guests.GuestByToken(ctx, john.Token); !errors.Is(err, ErrGuestNotFound) {
		t.Errorf("archived guest: got %v, want ErrGuestNotFound", err)
	}
}

func TestGuestService_SubmitRSVP(t *testing.T) {
	ctx := context.Background()

	t.Run("records history", func(t *testing.T) {
		f := newFixture(t)
		event := f.event(t, nil)
		john := f.guest(t, event.ID, "John", "Doe")

		if _, err := f.guests.SubmitRSVP(ctx, john.Token, model.ResponseAccepted, " see you "); err != nil {
			t.Fatal(err)
		}
		f.now = f.now.Add(time.Hour)
		guest, err := f.guests.SubmitRSVP(ctx, john.Token, model.ResponseDeclined, "")
		if err != nil {
			t.Fatal(err)
		}
		if guest.Response != model.ResponseDeclined {
			t.Errorf("response = %s", guest.Response)
		}
		history, err := f.guests.RSVPHistory(ctx, john.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 2 || history[0].Message != "see you" || history[1].Response != model.ResponseDeclined {
			t.Errorf("history = %+v", history)
		}
		if len(f.notifier.rsvps) != 2 {
			t.Errorf("rsvp notifications = %d, want 2", len(f.notifier.rsvps))
		}
	})

	t.Run("deadline passed", func(t *testing.T) {
		f := newFixture(t)
		deadline := f.now.Add(-time.Minute)
		event := f.event(t, &deadline)
		john := f.guest(t, event.ID, "John", "Doe")

		if _, err := f.guests.SubmitRSVP(ctx, john.Token, model.ResponseAccepted, ""); !errors.Is(err, ErrRSVPClosed) {
			t.Errorf("got %v, want ErrRSVPClosed", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		event := f.event(t, nil)
		john := f.guest(t, event.ID, "John", "Doe")

		var vErr *ValidationError
		if _, err := f.guests.SubmitRSVP(ctx, john.Token, model.ResponsePending, ""); !errors.As(err, &vErr) {
			t.Errorf("pending response: got %v", err)
		}
		if _, err := f.guests.SubmitRSVP(ctx, "nope", model.ResponseAccepted, ""); !errors.Is(err, ErrGuestNotFound) {
			t.Errorf("unknown token: got %v", err)
		}
	})
}
