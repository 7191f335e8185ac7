// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

type EventService struct {
	events db.EventStore
	now    func() time.Time
}

func NewEventService(events db.EventStore) *EventService {
	return &EventService{events: events, now: time.Now}
}

func (s *EventService) CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	normalizeEvent(event)
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	event.ID = uuid.Nil
	event.Status = model.EventStatusActive
	if _, err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent replaces the editable fields of an existing event.
func (s *EventService) UpdateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	existing, err := s.events.GetEventByID(ctx, event.ID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if existing.Status == model.EventStatusArchived {
		return nil, ErrArchived
	}
	normalizeEvent(event)
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	existing.Title = event.Title
	existing.Kind = event.Kind
	existing.Description = event.Description
	existing.Location = event.Location
	existing.Date = event.Date
	existing.RSVPDeadline = event.RSVPDeadline
	if err := s.events.UpdateEvent(ctx, existing); err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return existing, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return event, nil
}

// ListEvents returns events ordered by date. Archived events are left out
// unless includeArchived is set.
func (s *EventService) ListEvents(ctx context.Context, includeArchived bool) ([]*model.Event, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*model.Event, 0, len(events))
	for _, e := range events {
		if includeArchived || e.Status != model.EventStatusArchived {
			res = append(res, e)
		}
	}
	slices.SortStableFunc(res, func(a, b *model.Event) int {
		return a.Date.Compare(b.Date)
	})
	return res, nil
}

func (s *EventService) ArchiveEvent(ctx context.Context, id uuid.UUID) error {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return notFound(err, ErrEventNotFound)
	}
	if event.Status == model.EventStatusArchived {
		return nil
	}
	event.Status = model.EventStatusArchived
	return s.events.UpdateEvent(ctx, event)
}

func normalizeEvent(event *model.Event) {
	event.Title = strings.TrimSpace(event.Title)
	event.Description = strings.TrimSpace(event.Description)
	if event.Kind == "" {
		event.Kind = model.EventKindOther
	}
}

func validateEvent(event *model.Event) error {
	v := &ValidationError{}
	if event.Title == "" {
		v.add("title", "is required")
	}
	if !event.Kind.Valid() {
		v.add("kind", "must be one of wedding, birthday, seminar, other")
	}
	if event.Date.IsZero() {
		v.add("date", "is required")
	}
	if event.RSVPDeadline != nil && !event.Date.IsZero() && event.RSVPDeadline.After(event.Date) {
		v.add("rsvp_deadline", "must not be after the event date")
	}
	return v.orNil()
}
