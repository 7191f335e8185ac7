// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package attendance implements the check-in desk: the guest list of one
// event with search, filter and paging, and the admission flow on top of it.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

const DefaultPageSize = 10

var ErrGuestNotFound = errors.New("Guest not found")

// GuestService is the remote guest data the desk works against.
type GuestService interface {
	GuestsForAttendance(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error)
	UpdateGuestAttendanceStatus(ctx context.Context, guestID uuid.UUID, status model.AttendanceStatus) error
	GuestsByToken(ctx context.Context, token string) ([]*model.Guest, error)
}

type Filter string

const (
	FilterAll         Filter = "all"
	FilterAdmitted    Filter = "admitted"
	FilterNotAdmitted Filter = "not_admitted"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterAdmitted, FilterNotAdmitted:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", fmt.Errorf("unknown attendance filter %q", s)
}

func (f Filter) match(g *model.Guest) bool {
	switch f {
	case FilterAdmitted:
		return g.AttendanceStatus == model.AttendanceAdmitted
	case FilterNotAdmitted:
		return g.AttendanceStatus != model.AttendanceAdmitted
	}
	return true
}

// Session holds the guests of one event and derives the filtered and paged
// view from them. It is safe for concurrent use.
type Session struct {
	svc GuestService
	now func() time.Time

	mu       sync.RWMutex
	eventID  uuid.UUID
	guests   []*model.Guest
	filtered []*model.Guest
	err      string
	search   string
	filter   Filter
	page     int
	pageSize int
}

func NewSession(svc GuestService) *Session {
	s := &Session{svc: svc, now: time.Now}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.guests = nil
	s.filtered = nil
	s.err = ""
	s.search = ""
	s.filter = FilterAll
	s.page = 1
	s.pageSize = DefaultPageSize
}

// Load fetches every guest of eventID. Switching to another event starts from
// a fresh session. On failure the error message is kept and the list is
// emptied.
func (s *Session) Load(ctx context.Context, eventID uuid.UUID) error {
	s.mu.Lock()
	if eventID != s.eventID {
		s.reset()
		s.eventID = eventID
	}
	s.mu.Unlock()

	guests, err := s.svc.GuestsForAttendance(ctx, eventID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventID != eventID {
		// a newer Load for another event won
		return nil
	}
	if err != nil {
		s.guests = nil
		s.err = err.Error()
		s.recompute()
		s.clampPage()
		return err
	}
	s.guests = make([]*model.Guest, 0, len(guests))
	for _, g := range guests {
		s.guests = append(s.guests, g.Clone())
	}
	s.err = ""
	s.recompute()
	s.clampPage()
	return nil
}

func (s *Session) EventID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventID
}

// Err returns the message of the last failed load, or "".
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = text
	s.page = 1
	s.recompute()
}

func (s *Session) SetAttendanceFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.page = 1
	s.recompute()
}

// SetPageSize changes the page size; values below one fall back to
// DefaultPageSize.
func (s *Session) SetPageSize(n int) {
	if n < 1 {
		n = DefaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
	s.page = 1
	s.recompute()
}

// SetPage moves to page n, clamped to the available pages.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = n
	s.clampPage()
}

func (s *Session) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

func (s *Session) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Session) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *Session) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSize
}

// Guests returns copies of all loaded guests in fetch order.
func (s *Session) Guests() []*model.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.guests)
}

// FilteredGuests returns copies of the guests matching search and filter, in
// fetch order.
func (s *Session) FilteredGuests() []*model.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.filtered)
}

// TotalPages is ceil(len(FilteredGuests)/PageSize); 0 when nothing matches.
func (s *Session) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalPages()
}

func (s *Session) totalPages() int {
	return (len(s.filtered) + s.pageSize - 1) / s.pageSize
}

// PageGuests returns the guests on the current page.
func (s *Session) PageGuests() []*model.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := (s.page - 1) * s.pageSize
	if start >= len(s.filtered) {
		return []*model.Guest{}
	}
	end := min(start+s.pageSize, len(s.filtered))
	return cloneAll(s.filtered[start:end])
}

// Guest returns a copy of the loaded guest with id.
func (s *Session) Guest(id uuid.UUID) (*model.Guest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.guests {
		if g.ID == id {
			return g.Clone(), true
		}
	}
	return nil, false
}

// UpdateAttendanceStatus changes the status remotely and, on success, patches
// only that guest in the local list.
func (s *Session) UpdateAttendanceStatus(ctx context.Context, guestID uuid.UUID, status model.AttendanceStatus) error {
	if err := s.svc.UpdateGuestAttendanceStatus(ctx, guestID, status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.guests {
		if g.ID != guestID {
			continue
		}
		if g.AttendanceStatus != status {
			g.AttendanceStatus = status
			if status == model.AttendanceAdmitted {
				now := s.now()
				g.AdmittedAt = &now
			} else {
				g.AdmittedAt = nil
			}
		}
		break
	}
	s.recompute()
	s.clampPage()
	return nil
}

// GetGuestByToken resolves a scanned payload to a guest. Only the first match
// is used.
func (s *Session) GetGuestByToken(ctx context.Context, payload string) (*model.Guest, error) {
	token := NormalizeToken(payload)
	if token == "" {
		return nil, ErrGuestNotFound
	}
	guests, err := s.svc.GuestsByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(guests) == 0 {
		return nil, ErrGuestNotFound
	}
	return guests[0].Clone(), nil
}

func (s *Session) recompute() {
	search := strings.ToLower(strings.TrimSpace(s.search))
	s.filtered = s.filtered[:0]
	for _, g := range s.guests {
		if s.filter.match(g) && matchSearch(g, search) {
			s.filtered = append(s.filtered, g)
		}
	}
}

func (s *Session) clampPage() {
	if total := s.totalPages(); s.page > total {
		s.page = total
	}
	if s.page < 1 {
		s.page = 1
	}
}

func matchSearch(g *model.Guest, search string) bool {
	if search == "" {
		return true
	}
	name := strings.ToLower(g.FirstName + " " + g.LastName)
	return strings.Contains(name, search) || strings.Contains(strings.ToLower(g.Email), search)
}

func cloneAll(guests []*model.Guest) []*model.Guest {
	res := make([]*model.Guest, 0, len(guests))
	for _, g := range guests {
		res = append(res, g.Clone())
	}
	return res
}
