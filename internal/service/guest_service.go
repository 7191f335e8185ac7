// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
	"github.com/quixsi/checkin/internal/notifier"
)

type GuestService struct {
	events   db.EventStore
	guests   db.GuestStore
	rsvps    db.RSVPStore
	notifier notifier.Notifier
	logger   *slog.Logger

	maxGuestsPerEvent int
	now               func() time.Time
	newToken          func() (string, error)
}

type Option func(*GuestService)

func WithNotifier(n notifier.Notifier) Option {
	return func(s *GuestService) { s.notifier = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *GuestService) { s.logger = logger }
}

// WithGuestLimit caps the number of active guests per event. Zero disables
// the limit.
func WithGuestLimit(n int) Option {
	return func(s *GuestService) { s.maxGuestsPerEvent = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *GuestService) { s.now = now }
}

func NewGuestService(events db.EventStore, guests db.GuestStore, rsvps db.RSVPStore, opts ...Option) *GuestService {
	s := &GuestService{
		events:   events,
		guests:   guests,
		rsvps:    rsvps,
		logger:   slog.Default().WithGroup("guest-service"),
		now:      time.Now,
		newToken: NewToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notifier.NewLogNotifier(s.logger)
	}
	return s
}

// CreateGuest adds guest to the event. The service owns token, response,
// attendance and status of new guests; values passed in for them are ignored.
func (s *GuestService) CreateGuest(ctx context.Context, eventID uuid.UUID, guest *model.Guest) (*model.Guest, error) {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if event.Status == model.EventStatusArchived {
		return nil, ErrArchived
	}

	normalizeGuest(guest)
	if err := validateGuest(guest); err != nil {
		return nil, err
	}

	if s.maxGuestsPerEvent > 0 {
		existing, err := s.activeGuests(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if len(existing) >= s.maxGuestsPerEvent {
			return nil, ErrLimitExceeded
		}
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	guest.ID = uuid.Nil
	guest.EventID = eventID
	guest.Token = token
	guest.Response = model.ResponsePending
	guest.AttendanceStatus = model.AttendanceNotAdmitted
	guest.AdmittedAt = nil
	guest.Status = model.GuestStatusActive
	if _, err := s.guests.CreateGuest(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

// UpdateGuest changes the organizer editable fields of a guest. Token,
// attendance and event membership stay untouched.
func (s *GuestService) UpdateGuest(ctx context.Context, guest *model.Guest) (*model.Guest, error) {
	existing, err := s.guests.GetGuestByID(ctx, guest.ID)
	if err != nil {
		return nil, notFound(err, ErrGuestNotFound)
	}
	if existing.Archived() {
		return nil, ErrArchived
	}

	normalizeGuest(guest)
	if err := validateGuest(guest); err != nil {
		return nil, err
	}
	if guest.Response != "" && !guest.Response.Valid() {
		return nil, &ValidationError{FieldErrors: map[string]string{"response": "must be one of pending, accepted, declined"}}
	}

	existing.FirstName = guest.FirstName
	existing.LastName = guest.LastName
	existing.Email = guest.Email
	existing.Phone = guest.Phone
	existing.Type = guest.Type
	existing.SeatNumber = guest.SeatNumber
	existing.Images = guest.Images
	if guest.Response != "" {
		existing.Response = guest.Response
	}
	if err := s.guests.UpdateGuest(ctx, existing); err != nil {
		return nil, notFound(err, ErrGuestNotFound)
	}
	return existing, nil
}

func (s *GuestService) GetGuest(ctx context.Context, id uuid.UUID) (*model.Guest, error) {
	guest, err := s.guests.GetGuestByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrGuestNotFound)
	}
	return guest, nil
}

// ListGuests returns the guests of an event in creation order.
func (s *GuestService) ListGuests(ctx context.Context, eventID uuid.UUID, includeArchived bool) ([]*model.Guest, error) {
	if _, err := s.events.GetEventByID(ctx, eventID); err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if !includeArchived {
		return s.activeGuests(ctx, eventID)
	}
	guests, err := s.guests.ListGuestsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sortByCreation(guests)
	return guests, nil
}

// ArchiveGuest hides a guest from lists and lookups. Guests are never deleted.
func (s *GuestService) ArchiveGuest(ctx context.Context, id uuid.UUID) error {
	guest, err := s.guests.GetGuestByID(ctx, id)
	if err != nil {
		return notFound(err, ErrGuestNotFound)
	}
	if guest.Archived() {
		return nil
	}
	guest.Status = model.GuestStatusArchived
	return s.guests.UpdateGuest(ctx, guest)
}

// GuestsForAttendance returns the active guests of an event in creation order.
func (s *GuestService) GuestsForAttendance(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	return s.ListGuests(ctx, eventID, false)
}

// UpdateGuestAttendanceStatus moves a guest between not_admitted and
// admitted. Setting the current status again is a no-op.
func (s *GuestService) UpdateGuestAttendanceStatus(ctx context.Context, guestID uuid.UUID, status model.AttendanceStatus) error {
	if !status.Valid() {
		return &ValidationError{FieldErrors: map[string]string{"attendance_status": "must be admitted or not_admitted"}}
	}
	guest, err := s.guests.GetGuestByID(ctx, guestID)
	if err != nil {
		return notFound(err, ErrGuestNotFound)
	}
	if guest.Archived() {
		return ErrArchived
	}
	if guest.AttendanceStatus == status {
		return nil
	}

	guest.AttendanceStatus = status
	if status == model.AttendanceAdmitted {
		now := s.now()
		guest.AdmittedAt = &now
	} else {
		guest.AdmittedAt = nil
	}
	if err := s.guests.UpdateGuest(ctx, guest); err != nil {
		return notFound(err, ErrGuestNotFound)
	}

	if status == model.AttendanceAdmitted {
		s.notify(ctx, guest, s.notifier.NotifyAdmission)
	}
	return nil
}

// GuestsByToken resolves a QR token. Unknown tokens yield an empty list.
func (s *GuestService) GuestsByToken(ctx context.Context, token string) ([]*model.Guest, error) {
	token = strings.TrimSpace(token)
	guests, err := s.guests.GetGuestsByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	res := make([]*model.Guest, 0, len(guests))
	for _, g := range guests {
		if !g.Archived() {
			res = append(res, g)
		}
	}
	return res, nil
}

// GuestByToken is GuestsByToken for callers that need exactly one guest.
func (s *GuestService) GuestByToken(ctx context.Context, token string) (*model.Guest, error) {
	guests, err := s.GuestsByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(guests) == 0 {
		return nil, ErrGuestNotFound
	}
	return guests[0], nil
}

// SubmitRSVP records the answer of the guest holding token and keeps the
// submission in the RSVP history.
func (s *GuestService) SubmitRSVP(ctx context.Context, token string, response model.Response, message string) (*model.Guest, error) {
	if response != model.ResponseAccepted && response != model.ResponseDeclined {
		return nil, &ValidationError{FieldErrors: map[string]string{"response": "must be accepted or declined"}}
	}
	guest, err := s.GuestByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetEventByID(ctx, guest.EventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if !event.RSVPOpen(s.now()) {
		return nil, ErrRSVPClosed
	}

	guest.Response = response
	if err := s.guests.UpdateGuest(ctx, guest); err != nil {
		return nil, notFound(err, ErrGuestNotFound)
	}
	rsvp := &model.RSVP{
		EventID:   event.ID,
		GuestID:   guest.ID,
		Response:  response,
		Message:   strings.TrimSpace(message),
		CreatedAt: s.now(),
	}
	if _, err := s.rsvps.CreateRSVP(ctx, rsvp); err != nil {
		return nil, fmt.Errorf("record rsvp: %w", err)
	}

	if err := s.notifier.NotifyRSVP(ctx, event, guest); err != nil {
		s.logger.WarnContext(ctx, "rsvp notification failed", "guest", guest.ID, "error", err)
	}
	return guest, nil
}

// RSVPHistory lists every answer a guest submitted, oldest first.
func (s *GuestService) RSVPHistory(ctx context.Context, guestID uuid.UUID) ([]*model.RSVP, error) {
	if _, err := s.guests.GetGuestByID(ctx, guestID); err != nil {
		return nil, notFound(err, ErrGuestNotFound)
	}
	rsvps, err := s.rsvps.ListRSVPsByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rsvps, func(a, b *model.RSVP) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return rsvps, nil
}

func (s *GuestService) activeGuests(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	guests, err := s.guests.ListGuestsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res := make([]*model.Guest, 0, len(guests))
	for _, g := range guests {
		if !g.Archived() {
			res = append(res, g)
		}
	}
	sortByCreation(res)
	return res, nil
}

func (s *GuestService) notify(ctx context.Context, guest *model.Guest, fn func(context.Context, *model.Event, *model.Guest) error) {
	event, err := s.events.GetEventByID(ctx, guest.EventID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification skipped, event lookup failed", "guest", guest.ID, "error", err)
		return
	}
	if err := fn(ctx, event, guest); err != nil {
		s.logger.WarnContext(ctx, "notification failed", "guest", guest.ID, "error", err)
	}
}

func sortByCreation(guests []*model.Guest) {
	slices.SortStableFunc(guests, func(a, b *model.Guest) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return 0
		case a.CreatedAt == nil:
			return -1
		case b.CreatedAt == nil:
			return 1
		}
		return a.CreatedAt.Compare(*b.CreatedAt)
	})
}

func normalizeGuest(guest *model.Guest) {
	guest.FirstName = strings.TrimSpace(guest.FirstName)
	guest.LastName = strings.TrimSpace(guest.LastName)
	guest.Email = strings.TrimSpace(guest.Email)
	guest.SeatNumber = strings.TrimSpace(guest.SeatNumber)
	if guest.Type == "" {
		guest.Type = model.GuestTypeRegular
	}
	if !guest.Type.HasPhone() {
		guest.Phone = ""
	}
	guest.Phone = strings.TrimSpace(guest.Phone)
}

func validateGuest(guest *model.Guest) error {
	v := &ValidationError{}
	if guest.FirstName == "" {
		v.add("first_name", "is required")
	}
	if guest.Email != "" {
		if _, err := mail.ParseAddress(guest.Email); err != nil {
			v.add("email", "is not a valid address")
		}
	}
	if !guest.Type.Valid() {
		v.add("type", "must be one of regular, entourage, sponsor")
	}
	return v.orNil()
}

// IsNotFound reports whether err means a missing event or guest.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrGuestNotFound) || errors.Is(err, db.ErrNotFound)
}
