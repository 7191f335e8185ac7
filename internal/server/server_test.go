// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quixsi/checkin/internal/db/backend"
	"github.com/quixsi/checkin/internal/model"
	"github.com/quixsi/checkin/internal/service"
)

const (
	testUser     = "organizer"
	testPassword = "s3cret"
)

type fixture struct {
	srv    *Server
	events *service.EventService
	guests *service.GuestService
}

func newFixture(t *testing.T, password string, opts ...service.Option) *fixture {
	t.Helper()
	database, err := backend.Open("json://" + t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	events := service.NewEventService(database)
	guests := service.NewGuestService(database, database, database, opts...)
	srv := NewServer(Config{
		ServiceName:   "checkin-test",
		PublicURL:     "https://party.example.com",
		AdminUser:     testUser,
		AdminPassword: password,
	}, events, guests)
	return &fixture{srv: srv, events: events, guests: guests}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case url.Values:
		reader = bytes.NewReader([]byte(b.Encode()))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	switch body.(type) {
	case nil:
	case url.Values:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(testUser, testPassword)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) event(t *testing.T) *model.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), &model.Event{
		Title: "Summer Seminar",
		Kind:  model.EventKindSeminar,
		Date:  time.Now().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	return event
}

func (f *fixture) guest(t *testing.T, eventID uuid.UUID, first, last, seat string) *model.Guest {
	t.Helper()
	guest, err := f.guests.CreateGuest(context.Background(), eventID, &model.Guest{
		FirstName:  first,
		LastName:   last,
		Email:      strings.ToLower(first) + "@example.com",
		Type:       model.GuestTypeRegular,
		SeatNumber: seat,
	})
	if err != nil {
		t.Fatal(err)
	}
	return guest
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type envelopeOf[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func TestAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	tt := []struct {
		name     string
		password string
		user     string
		pass     string
		want     int
	}{
		{name: "plain ok", password: testPassword, user: testUser, pass: testPassword, want: http.StatusOK},
		{name: "plain wrong", password: testPassword, user: testUser, pass: "nope", want: http.StatusUnauthorized},
		{name: "bcrypt ok", password: string(hash), user: testUser, pass: testPassword, want: http.StatusOK},
		{name: "bcrypt wrong user", password: string(hash), user: "guest", pass: testPassword, want: http.StatusUnauthorized},
		{name: "bcrypt wrong password", password: string(hash), user: testUser, pass: "nope", want: http.StatusUnauthorized},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.password)
			req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
			req.SetBasicAuth(tc.user, tc.pass)
			rec := httptest.NewRecorder()
			f.srv.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHealthzAndNotFound(t *testing.T) {
	f := newFixture(t, testPassword)

	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["code"] != "PAGE_NOT_FOUND" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestEvents(t *testing.T) {
	f := newFixture(t, testPassword)

	rec := f.do(t, http.MethodPost, "/admin/events", map[string]any{"title": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create status = %d", rec.Code)
	}
	verr := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	if _, ok := verr.Fields["title"]; !ok {
		t.Errorf("missing title error: %v", verr.Fields)
	}

	rec = f.do(t, http.MethodPost, "/admin/events", url.Values{
		"title":         {"Garden Party"},
		"kind":          {"birthday"},
		"date":          {"2025-08-01T18:00"},
		"location.city": {"Berlin"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[model.Event](t, rec)
	if created.ID == uuid.Nil || created.Location == nil || created.Location.City != "Berlin" {
		t.Fatalf("unexpected event %+v", created)
	}

	rec = f.do(t, http.MethodPut, "/admin/events/"+created.ID.String(), map[string]any{
		"title": "Garden Party II",
		"kind":  "birthday",
		"date":  created.Date,
	})
	if rec.Code != http.StatusOK || decode[model.Event](t, rec).Title != "Garden Party II" {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	if rec = f.do(t, http.MethodDelete, "/admin/events/"+created.ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("archive status = %d", rec.Code)
	}
	if list := decode[[]model.Event](t, f.do(t, http.MethodGet, "/admin/events", nil)); len(list) != 0 {
		t.Errorf("archived event listed: %v", list)
	}
	if list := decode[[]model.Event](t, f.do(t, http.MethodGet, "/admin/events?archived=true", nil)); len(list) != 1 {
		t.Errorf("archived=true listed %d events", len(list))
	}

	rec = f.do(t, http.MethodPut, "/admin/events/"+created.ID.String(), map[string]any{"title": "x", "date": created.Date})
	if rec.Code != http.StatusConflict {
		t.Errorf("update archived status = %d", rec.Code)
	}
	if rec = f.do(t, http.MethodGet, "/admin/events/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown event status = %d", rec.Code)
	}
	if rec = f.do(t, http.MethodGet, "/admin/events/not-a-uuid", nil); rec.Code != http.StatusNotFound {
		t.Errorf("malformed id status = %d", rec.Code)
	}
}

func TestGuests(t *testing.T) {
	f := newFixture(t, testPassword, service.WithGuestLimit(2))
	event := f.event(t)
	base := "/admin/events/" + event.ID.String() + "/guests"

	rec := f.do(t, http.MethodPost, base, map[string]any{
		"first_name":  "John",
		"last_name":   "Doe",
		"email":       "john@example.com",
		"type":        "regular",
		"seat_number": "A1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	john := decode[model.Guest](t, rec)
	if john.Token == "" || john.Response != model.ResponsePending || john.AttendanceStatus != model.AttendanceNotAdmitted {
		t.Fatalf("unexpected guest %+v", john)
	}

	f.guest(t, event.ID, "Jane", "Roe", "")
	rec = f.do(t, http.MethodPost, base, map[string]any{"first_name": "Max", "last_name": "Limit", "email": "max@example.com", "type": "regular"})
	if rec.Code != http.StatusConflict {
		t.Errorf("over limit status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/admin/guests/"+john.ID.String(), map[string]any{
		"first_name":  "John",
		"last_name":   "Doe",
		"email":       "john@example.com",
		"type":        "regular",
		"seat_number": "B2",
	})
	if rec.Code != http.StatusOK || decode[model.Guest](t, rec).SeatNumber != "B2" {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	if list := decode[[]model.Guest](t, f.do(t, http.MethodGet, base, nil)); len(list) != 2 {
		t.Fatalf("listed %d guests", len(list))
	}
	if rec = f.do(t, http.MethodDelete, "/admin/guests/"+john.ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("archive status = %d", rec.Code)
	}
	if list := decode[[]model.Guest](t, f.do(t, http.MethodGet, base, nil)); len(list) != 1 {
		t.Errorf("listed %d guests after archive", len(list))
	}
	if rec = f.do(t, http.MethodGet, "/admin/guests/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown guest status = %d", rec.Code)
	}
}

func TestGuestQRCodeAndRSVPs(t *testing.T) {
	f := newFixture(t, testPassword)
	event := f.event(t)
	guest := f.guest(t, event.ID, "John", "Doe", "A1")

	if _, err := f.guests.SubmitRSVP(context.Background(), guest.Token, model.ResponseAccepted, "see you"); err != nil {
		t.Fatal(err)
	}
	rsvps := decode[[]model.RSVP](t, f.do(t, http.MethodGet, "/admin/guests/"+guest.ID.String()+"/rsvps", nil))
	if len(rsvps) != 1 || rsvps[0].Message != "see you" {
		t.Errorf("unexpected rsvps %+v", rsvps)
	}

	rec := f.do(t, http.MethodGet, "/admin/guests/"+guest.ID.String()+"/qr.png?size=128", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qr status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("qr width = %d", img.Bounds().Dx())
	}
	if rec = f.do(t, http.MethodGet, "/admin/guests/"+guest.ID.String()+"/qr.png?size=5000", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("oversized qr status = %d", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, testPassword)
	event := f.event(t)
	f.guest(t, event.ID, "John", "Doe", "A1")
	f.guest(t, event.ID, "Jane", "Roe", "")

	rec := f.do(t, http.MethodGet, "/admin/events/"+event.ID.String()+"/guests/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0][1] != "first_name" || records[1][1] != "John" {
		t.Errorf("unexpected header/first row: %v %v", records[0], records[1])
	}
}

func TestAttendanceEnvelope(t *testing.T) {
	f := newFixture(t, testPassword)
	event := f.event(t)
	john := f.guest(t, event.ID, "John", "Doe", "A1")
	f.guest(t, event.ID, "Jane", "Roe", "")

	guests := decode[envelopeOf[[]model.Guest]](t, f.do(t, http.MethodGet, "/admin/events/"+event.ID.String()+"/attendance/guests", nil))
	if !guests.Success || len(guests.Data) != 2 || guests.Data[0].ID != john.ID {
		t.Fatalf("unexpected guests envelope %+v", guests)
	}

	rec := f.do(t, http.MethodGet, "/admin/events/"+uuid.NewString()+"/attendance/guests", nil)
	failed := decode[envelopeOf[any]](t, rec)
	if rec.Code != http.StatusNotFound || failed.Success || failed.Message != "Event not found" {
		t.Errorf("unknown event: %d %+v", rec.Code, failed)
	}

	byToken := decode[envelopeOf[[]model.Guest]](t, f.do(t, http.MethodGet, "/admin/guests?token="+url.QueryEscape(" "+john.Token+" "), nil))
	if !byToken.Success || len(byToken.Data) != 1 || byToken.Data[0].ID != john.ID {
		t.Fatalf("unexpected token lookup %+v", byToken)
	}
	unknown := decode[envelopeOf[[]model.Guest]](t, f.do(t, http.MethodGet, "/admin/guests?token=nope", nil))
	if !unknown.Success || len(unknown.Data) != 0 {
		t.Errorf("unknown token lookup %+v", unknown)
	}
	if rec = f.do(t, http.MethodGet, "/admin/guests", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing token status = %d", rec.Code)
	}

	tt := []struct {
		name    string
		id      string
		status  string
		code    int
		success bool
		message string
	}{
		{name: "admit", id: john.ID.String(), status: "admitted", code: http.StatusOK, success: true},
		{name: "admit again", id: john.ID.String(), status: "admitted", code: http.StatusOK, success: true},
		{name: "bad status", id: john.ID.String(), status: "maybe", code: http.StatusBadRequest},
		{name: "unknown guest", id: uuid.NewString(), status: "admitted", code: http.StatusNotFound, message: "Guest not found"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, "/admin/guests/"+tc.id+"/attendance", map[string]string{"attendance_status": tc.status})
			res := decode[envelopeOf[any]](t, rec)
			if rec.Code != tc.code || res.Success != tc.success {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
			if tc.message != "" && res.Message != tc.message {
				t.Errorf("message = %q, want %q", res.Message, tc.message)
			}
		})
	}

	got, err := f.guests.GetGuest(context.Background(), john.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Admitted() || got.AdmittedAt == nil {
		t.Errorf("guest not admitted: %+v", got)
	}
}

func TestAttendanceView(t *testing.T) {
	f := newFixture(t, testPassword)
	event := f.event(t)
	for _, name := range []string{"Anna", "Ben", "Cara", "Dan", "Eve"} {
		f.guest(t, event.ID, name, "Smith", "")
	}
	ben := f.guest(t, event.ID, "Ben", "Jones", "C3")
	if err := f.guests.UpdateGuestAttendanceStatus(context.Background(), ben.ID, model.AttendanceAdmitted); err != nil {
		t.Fatal(err)
	}
	base := "/admin/events/" + event.ID.String() + "/attendance"

	tt := []struct {
		name       string
		query      string
		code       int
		page       int
		totalPages int
		total      int
		names      []string
	}{
		{name: "defaults", query: "", code: http.StatusOK, page: 1, totalPages: 1, total: 6, names: []string{"Anna", "Ben", "Cara", "Dan", "Eve", "Ben"}},
		{name: "paged", query: "?page_size=2&page=2", code: http.StatusOK, page: 2, totalPages: 3, total: 6, names: []string{"Cara", "Dan"}},
		{name: "page clamped", query: "?page_size=4&page=9", code: http.StatusOK, page: 2, totalPages: 2, total: 6, names: []string{"Eve", "Ben"}},
		{name: "search", query: "?search=BEN", code: http.StatusOK, page: 1, totalPages: 1, total: 2, names: []string{"Ben", "Ben"}},
		{name: "admitted", query: "?filter=admitted", code: http.StatusOK, page: 1, totalPages: 1, total: 1, names: []string{"Ben"}},
		{name: "search without hits", query: "?search=zoe", code: http.StatusOK, page: 1, totalPages: 0, total: 0, names: []string{}},
		{name: "bad filter", query: "?filter=vip", code: http.StatusBadRequest},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, base+tc.query, nil)
			if rec.Code != tc.code {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if tc.code != http.StatusOK {
				return
			}
			view := decode[attendanceView](t, rec)
			if view.Page != tc.page || view.TotalPages != tc.totalPages || view.Total != tc.total || view.Admitted != 1 {
				t.Errorf("unexpected view %+v", view)
			}
			names := make([]string, 0, len(view.Guests))
			for _, g := range view.Guests {
				names = append(names, g.FirstName)
			}
			if strings.Join(names, ",") != strings.Join(tc.names, ",") {
				t.Errorf("names = %v, want %v", names, tc.names)
			}
		})
	}
}
