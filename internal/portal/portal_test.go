// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package portal

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/quixsi/checkin/internal/db/backend"
	"github.com/quixsi/checkin/internal/model"
	"github.com/quixsi/checkin/internal/service"
)

type fixture struct {
	handler http.Handler
	events  *service.EventService
	guests  *service.GuestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := backend.Open("json://" + t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	events := service.NewEventService(database)
	guests := service.NewGuestService(database, database, database)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPortal(logger, "https://party.example.com", events, guests)
	return &fixture{handler: p.Handler(), events: events, guests: guests}
}

func (f *fixture) guest(t *testing.T, deadline *time.Time) (*model.Event, *model.Guest) {
	t.Helper()
	ctx := context.Background()
	event, err := f.events.CreateEvent(ctx, &model.Event{
		Title:        "Wedding of A and B",
		Kind:         model.EventKindWedding,
		Date:         time.Now().Add(60 * 24 * time.Hour),
		RSVPDeadline: deadline,
	})
	if err != nil {
		t.Fatal(err)
	}
	guest, err := f.guests.CreateGuest(ctx, event.ID, &model.Guest{
		FirstName:  "John",
		LastName:   "Doe",
		Email:      "john@example.com",
		Type:       model.GuestTypeRegular,
		SeatNumber: "A1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return event, guest
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestInvitation(t *testing.T) {
	f := newFixture(t)
	_, guest := f.guest(t, nil)

	tt := []struct {
		name     string
		path     string
		code     int
		contains []string
	}{
		{
			name:     "known token",
			path:     "/invite/" + guest.Token,
			code:     http.StatusOK,
			contains: []string{"Wedding of A and B", "Dear John Doe", "Seat Number: A1", `action="/invite/` + guest.Token + `/rsvp"`, "/invite/qr/" + guest.Token},
		},
		{
			name:     "submitted notice",
			path:     "/invite/" + guest.Token + "?submitted=1",
			code:     http.StatusOK,
			contains: []string{"your answer was saved"},
		},
		{
			name:     "unknown token",
			path:     "/invite/deadbeef",
			code:     http.StatusNotFound,
			contains: []string{model.ErrorReasonNotFound.Message()},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.serve(httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.code {
				t.Fatalf("status = %d", rec.Code)
			}
			body := rec.Body.String()
			for _, want := range tc.contains {
				if !strings.Contains(body, want) {
					t.Errorf("body misses %q", want)
				}
			}
		})
	}
}

func TestRSVP(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	tt := []struct {
		name     string
		deadline *time.Time
		form     url.Values
		code     int
		response model.Response
	}{
		{name: "accept", form: url.Values{"response": {"accepted"}, "message": {"Looking forward"}}, code: http.StatusSeeOther, response: model.ResponseAccepted},
		{name: "decline", form: url.Values{"response": {"declined"}}, code: http.StatusSeeOther, response: model.ResponseDeclined},
		{name: "no answer", form: url.Values{"message": {"hm"}}, code: http.StatusBadRequest, response: model.ResponsePending},
		{name: "deadline passed", deadline: &past, form: url.Values{"response": {"accepted"}}, code: http.StatusUnprocessableEntity, response: model.ResponsePending},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, guest := f.guest(t, tc.deadline)

			req := httptest.NewRequest(http.MethodPost, "/invite/"+guest.Token+"/rsvp", strings.NewReader(tc.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := f.serve(req)
			if rec.Code != tc.code {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if tc.code == http.StatusSeeOther {
				if loc := rec.Header().Get("Location"); loc != "/invite/"+guest.Token+"?submitted=1" {
					t.Errorf("location = %q", loc)
				}
			}

			got, err := f.guests.GetGuest(context.Background(), guest.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Response != tc.response {
				t.Errorf("response = %q, want %q", got.Response, tc.response)
			}
		})
	}
}

func TestRSVPClosedHidesForm(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)
	_, guest := f.guest(t, &past)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/invite/"+guest.Token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<form") || !strings.Contains(body, "deadline for this event has passed") {
		t.Errorf("unexpected body %s", body)
	}
}

func TestQRCode(t *testing.T) {
	f := newFixture(t)
	_, guest := f.guest(t, nil)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/invite/qr/"+guest.Token, nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Fatal(err)
	}
	if rec := f.serve(httptest.NewRequest(http.MethodGet, "/invite/qr/nope", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown token status = %d", rec.Code)
	}
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	_, guest := f.guest(t, nil)

	tt := []struct {
		name string
		path string
		code int
		want validation
	}{
		{
			name: "valid",
			path: "/invite/validate/" + guest.Token,
			code: http.StatusOK,
			want: validation{Valid: true, Name: "John Doe", Event: "Wedding of A and B", SeatNumber: "A1", AttendanceStatus: model.AttendanceNotAdmitted},
		},
		{
			name: "unknown",
			path: "/invite/validate/nope",
			code: http.StatusNotFound,
			want: validation{Message: "Guest not found"},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.serve(httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.code {
				t.Fatalf("status = %d", rec.Code)
			}
			var got validation
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestArchivedGuestIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, guest := f.guest(t, nil)
	if err := f.guests.ArchiveGuest(context.Background(), guest.ID); err != nil {
		t.Fatal(err)
	}
	if rec := f.serve(httptest.NewRequest(http.MethodGet, "/invite/"+guest.Token, nil)); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
