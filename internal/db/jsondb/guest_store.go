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

// GuestStore is an implementation of the db.GuestStore interface
// that stores guest data in a JSON file.
type GuestStore struct {
	filename string
	mu       sync.RWMutex
	guests   map[uuid.UUID]*model.Guest
}

// NewGuestStore creates a new GuestStore and loads filename if it exists.
func NewGuestStore(filename string) (*GuestStore, error) {
	store := &GuestStore{
		filename: filename,
		guests:   make(map[uuid.UUID]*model.Guest),
	}
	if err := readJSON(filename, &store.guests); err != nil {
		return nil, err
	}
	return store, nil
}

func (g *GuestStore) CreateGuest(ctx context.Context, guest *model.Guest) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateGuest")
	defer span.End()

	span.AddEvent("Lock")
	g.mu.Lock()
	defer span.AddEvent("Unlock")
	defer g.mu.Unlock()

	if guest.ID == uuid.Nil {
		guest.ID = uuid.New()
	}

	span.AddEvent("check if guest exists")
	if _, ok := g.guests[guest.ID]; ok {
		span.RecordError(db.ErrAlreadyExists)
		return uuid.Nil, db.ErrAlreadyExists
	}
	now := time.Now()
	guest.CreatedAt = &now
	g.guests[guest.ID] = guest.Clone()

	span.AddEvent("save to file")
	if err := writeJSON(ctx, g.filename, g.guests); err != nil {
		delete(g.guests, guest.ID)
		return uuid.Nil, err
	}
	return guest.ID, nil
}

func (g *GuestStore) UpdateGuest(ctx context.Context, guest *model.Guest) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		span.RecordError(db.ErrMissingID)
		return db.ErrMissingID
	}

	span.AddEvent("Lock")
	g.mu.Lock()
	defer span.AddEvent("Unlock")
	defer g.mu.Unlock()

	old, ok := g.guests[guest.ID]
	if !ok {
		span.RecordError(db.ErrNotFound)
		return db.ErrNotFound
	}
	now := time.Now()
	guest.UpdatedAt = &now
	g.guests[guest.ID] = guest.Clone()

	if err := writeJSON(ctx, g.filename, g.guests); err != nil {
		g.guests[guest.ID] = old
		return err
	}
	return nil
}

func (g *GuestStore) GetGuestByID(ctx context.Context, id uuid.UUID) (*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetGuestByID")
	defer span.End()

	g.mu.RLock()
	defer g.mu.RUnlock()

	guest, ok := g.guests[id]
	if !ok {
		span.RecordError(db.ErrNotFound)
		return nil, db.ErrNotFound
	}
	return guest.Clone(), nil
}

func (g *GuestStore) ListGuests(ctx context.Context) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListGuests")
	defer span.End()

	return g.filter(func(*model.Guest) bool { return true }), nil
}

func (g *GuestStore) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListGuestsByEvent")
	defer span.End()

	return g.filter(func(guest *model.Guest) bool { return guest.EventID == eventID }), nil
}

func (g *GuestStore) GetGuestsByToken(ctx context.Context, token string) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetGuestsByToken")
	defer span.End()

	if token == "" {
		return []*model.Guest{}, nil
	}
	return g.filter(func(guest *model.Guest) bool { return guest.Token == token }), nil
}

func (g *GuestStore) filter(keep func(*model.Guest) bool) []*model.Guest {
	g.mu.RLock()
	defer g.mu.RUnlock()

	res := []*model.Guest{}
	for _, guest := range g.guests {
		if keep(guest) {
			res = append(res, guest.Clone())
		}
	}
	return res
}
