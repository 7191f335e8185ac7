// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package jsondb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

func NewEventStore(filename string) (*EventStore, error) {
	store := &EventStore{
		filename: filename,
		events:   make(map[uuid.UUID]*model.Event),
	}
	if err := readJSON(filename, &store.events); err != nil {
		return nil, err
	}
	return store, nil
}

// EventStore keeps events in memory and mirrors every change to a JSON file.
type EventStore struct {
	mu sync.RWMutex

	filename string
	events   map[uuid.UUID]*model.Event
}

func (e *EventStore) CreateEvent(ctx context.Context, event *model.Event) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateEvent")
	defer span.End()

	span.AddEvent("Lock")
	e.mu.Lock()
	defer span.AddEvent("Unlock")
	defer e.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if _, ok := e.events[event.ID]; ok {
		span.RecordError(db.ErrAlreadyExists)
		return uuid.Nil, db.ErrAlreadyExists
	}
	now := time.Now()
	event.CreatedAt = &now

	stored := *event
	e.events[event.ID] = &stored
	if err := writeJSON(ctx, e.filename, e.events); err != nil {
		delete(e.events, event.ID)
		return uuid.Nil, err
	}
	return event.ID, nil
}

func (e *EventStore) UpdateEvent(ctx context.Context, event *model.Event) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdateEvent")
	defer span.End()

	if event.ID == uuid.Nil {
		span.RecordError(db.ErrMissingID)
		return db.ErrMissingID
	}

	span.AddEvent("Lock")
	e.mu.Lock()
	defer span.AddEvent("Unlock")
	defer e.mu.Unlock()

	old, ok := e.events[event.ID]
	if !ok {
		span.RecordError(db.ErrNotFound)
		return db.ErrNotFound
	}
	now := time.Now()
	event.UpdatedAt = &now

	stored := *event
	e.events[event.ID] = &stored
	if err := writeJSON(ctx, e.filename, e.events); err != nil {
		e.events[event.ID] = old
		return err
	}
	return nil
}

func (e *EventStore) GetEventByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetEventByID")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	event, ok := e.events[id]
	if !ok {
		span.RecordError(db.ErrNotFound)
		return nil, db.ErrNotFound
	}
	res := *event
	return &res, nil
}

func (e *EventStore) ListEvents(ctx context.Context) ([]*model.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListEvents")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	res := make([]*model.Event, 0, len(e.events))
	for _, event := range e.events {
		ev := *event
		res = append(res, &ev)
	}
	return res, nil
}
