// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package sqldb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/quixsi/checkin/internal/model"
)

func NewRSVPStore(gdb *gorm.DB) *RSVPStore {
	return &RSVPStore{db: gdb}
}

type RSVPStore struct {
	db *gorm.DB
}

func (r *RSVPStore) CreateRSVP(ctx context.Context, rsvp *model.RSVP) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateRSVP")
	defer span.End()

	if rsvp.ID == uuid.Nil {
		rsvp.ID = uuid.New()
	}
	if rsvp.CreatedAt.IsZero() {
		rsvp.CreatedAt = time.Now()
	}
	if err := translate(r.db.WithContext(ctx).Create(rsvp).Error); err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	return rsvp.ID, nil
}

func (r *RSVPStore) ListRSVPs(ctx context.Context) ([]*model.RSVP, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListRSVPs")
	defer span.End()

	var rsvps []*model.RSVP
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rsvps).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rsvps, nil
}

func (r *RSVPStore) ListRSVPsByGuest(ctx context.Context, guestID uuid.UUID) ([]*model.RSVP, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListRSVPsByGuest")
	defer span.End()

	var rsvps []*model.RSVP
	if err := r.db.WithContext(ctx).Where("guest_id = ?", guestID).Order("created_at").Find(&rsvps).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rsvps, nil
}
