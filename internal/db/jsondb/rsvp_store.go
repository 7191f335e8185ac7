// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package jsondb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/model"
)

func NewRSVPStore(filename string) (*RSVPStore, error) {
	store := &RSVPStore{filename: filename}
	if err := readJSON(filename, &store.rsvps); err != nil {
		return nil, err
	}
	return store, nil
}

// RSVPStore is an append-only RSVP history backed by a JSON file.
type RSVPStore struct {
	mu       sync.RWMutex
	filename string
	rsvps    []*model.RSVP
}

func (r *RSVPStore) CreateRSVP(ctx context.Context, rsvp *model.RSVP) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateRSVP")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if rsvp.ID == uuid.Nil {
		rsvp.ID = uuid.New()
	}
	if rsvp.CreatedAt.IsZero() {
		rsvp.CreatedAt = time.Now()
	}
	stored := *rsvp
	r.rsvps = append(r.rsvps, &stored)
	if err := writeJSON(ctx, r.filename, r.rsvps); err != nil {
		r.rsvps = r.rsvps[:len(r.rsvps)-1]
		return uuid.Nil, err
	}
	return rsvp.ID, nil
}

func (r *RSVPStore) ListRSVPs(ctx context.Context) ([]*model.RSVP, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListRSVPs")
	defer span.End()

	return r.filter(func(*model.RSVP) bool { return true }), nil
}

func (r *RSVPStore) ListRSVPsByGuest(ctx context.Context, guestID uuid.UUID) ([]*model.RSVP, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListRSVPsByGuest")
	defer span.End()

	return r.filter(func(rsvp *model.RSVP) bool { return rsvp.GuestID == guestID }), nil
}

func (r *RSVPStore) filter(keep func(*model.RSVP) bool) []*model.RSVP {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []*model.RSVP
	for _, rsvp := range r.rsvps {
		if keep(rsvp) {
			cp := *rsvp
			res = append(res, &cp)
		}
	}
	return res
}
