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

func NewEventStore(gdb *gorm.DB) *EventStore {
	return &EventStore{db: gdb}
}

type EventStore struct {
	db *gorm.DB
}

func (e *EventStore) CreateEvent(ctx context.Context, event *model.Event) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "CreateEvent")
	defer span.End()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now()
	event.CreatedAt = &now

	if err := translate(e.db.WithContext(ctx).Create(event).Error); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
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
	now := time.Now()
	event.UpdatedAt = &now

	res := e.db.WithContext(ctx).Model(event).Select("*").Omit("created_at").Updates(event)
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

func (e *EventStore) GetEventByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetEventByID")
	defer span.End()

	event := &model.Event{}
	if err := translate(e.db.WithContext(ctx).First(event, "id = ?", id).Error); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return event, nil
}

func (e *EventStore) ListEvents(ctx context.Context) ([]*model.Event, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListEvents")
	defer span.End()

	var events []*model.Event
	if err := e.db.WithContext(ctx).Order("date").Find(&events).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}
	return events, nil
}
