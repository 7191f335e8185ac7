// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package attendance

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

type fakeService struct {
	mu        sync.Mutex
	guests    map[uuid.UUID][]*model.Guest
	loadErr   error
	updateErr error
	loads     int
	updates   int
	lookups   []string
}

func newFakeService() *fakeService {
	return &fakeService{guests: make(map[uuid.UUID][]*model.Guest)}
}

func (f *fakeService) add(eventID uuid.UUID, g *model.Guest) *model.Guest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.AttendanceStatus == "" {
		g.AttendanceStatus = model.AttendanceNotAdmitted
	}
	g.EventID = eventID
	f.guests[eventID] = append(f.guests[eventID], g)
	return g
}

func (f *fakeService) GuestsForAttendance(_ context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return cloneAll(f.guests[eventID]), nil
}

func (f *fakeService) UpdateGuestAttendanceStatus(_ context.Context, guestID uuid.UUID, status model.AttendanceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, guests := range f.guests {
		for _, g := range guests {
			if g.ID == guestID {
				g.AttendanceStatus = status
				return nil
			}
		}
	}
	return errors.New("Guest not found")
}

func (f *fakeService) GuestsByToken(_ context.Context, token string) ([]*model.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, token)
	res := []*model.Guest{}
	for _, guests := range f.guests {
		for _, g := range guests {
			if g.Token == token {
				res = append(res, g.Clone())
			}
		}
	}
	return res, nil
}

type recordingToaster struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *recordingToaster) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recordingToaster) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}
