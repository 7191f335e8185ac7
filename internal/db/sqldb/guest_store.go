// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package sqldb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

func NewGuestStore(gdb *gorm.DB) *GuestStore {
	return &GuestStore{db: gdb}
}

type GuestStore struct {
	db *gorm.DB
}

func (g *GuestStore) CreateGuest(ctx context.Context, guest *model.Guest) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		guest.ID = uuid.New()
	}
	now := time.Now()
	guest.CreatedAt = &now

	if err := translate(g.db.WithContext(ctx).Create(guest).Error); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
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
	now := time.Now()
	guest.UpdatedAt = &now

	res := g.db.WithContext(ctx).Model(guest).Select("*").Omit("created_at").Updates(guest)
	if err := translate(res.Error); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if res.RowsAffected == 0 {
		span.RecordError(db.ErrNotFound)
		return db.ErrNotFound
	}
	return nil
}

func (g *GuestStore) GetGuestByID(ctx context.Context, id uuid.UUID) (*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetGuestByID")
	defer span.End()

	guest := &model.Guest{}
	if err := translate(g.db.WithContext(ctx).First(guest, "id = ?", id).Error); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return guest, nil
}

func (g *GuestStore) ListGuests(ctx context.Context) ([]*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListGuests")
	defer span.End()

	return g.find(ctx, span, g.db)
}

func (g *GuestStore) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListGuestsByEvent")
	defer span.End()

	return g.find(ctx, span, g.db.Where("event_id = ?", eventID))
}

func (g *GuestStore) GetGuestsByToken(ctx context.Context, token string) ([]*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetGuestsByToken")
	defer span.End()

	if token == "" {
		return []*model.Guest{}, nil
	}
	return g.find(ctx, span, g.db.Where("token = ?", token))
}

func (g *GuestStore) find(ctx context.Context, span trace.Span, query *gorm.DB) ([]*model.Guest, error) {
	guests := []*model.Guest{}
	if err := query.WithContext(ctx).Order("created_at").Find(&guests).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}
	if guests == nil {
		guests = []*model.Guest{}
	}
	return guests, nil
}
