// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

const bucketEvent = "event_store"

func NewEventStore(bdb *bolt.DB) (*EventStore, error) {
	return &EventStore{db: bdb}, bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketEvent))
		return err
	})
}

type EventStore struct {
	db *bolt.DB
}

func (e *EventStore) CreateEvent(ctx context.Context, event *model.Event) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "CreateEvent")
	defer span.End()

	if event.ID == uuid.Nil {
		span.AddEvent("uuid is nil, generate a new id")
		event.ID = uuid.New()
	}
	now := time.Now()
	event.CreatedAt = &now

	j, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}

	span.AddEvent("Update bucket")
	return event.ID, e.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvent))
		if bucket.Get(event.ID[:]) != nil {
			span.RecordError(db.ErrAlreadyExists)
			return db.ErrAlreadyExists
		}
		return bucket.Put(event.ID[:], j)
	})
}

func (e *EventStore) UpdateEvent(ctx context.Context, event *model.Event) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateEvent")
	defer span.End()

	if event.ID == uuid.Nil {
		span.RecordError(db.ErrMissingID)
		return db.ErrMissingID
	}
	now := time.Now()
	event.UpdatedAt = &now

	j, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.AddEvent("Update bucket")
	return e.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvent))
		if bucket.Get(event.ID[:]) == nil {
			span.RecordError(db.ErrNotFound)
			return db.ErrNotFound
		}
		return bucket.Put(event.ID[:], j)
	})
}

func (e *EventStore) GetEventByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetEventByID")
	defer span.End()

	span.AddEvent("View bucket")
	event := &model.Event{}
	err := e.db.View(func(tx *bolt.Tx) error {
		res := tx.Bucket([]byte(bucketEvent)).Get(id[:])
		if res == nil {
			return db.ErrNotFound
		}
		return json.Unmarshal(res, event)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return event, nil
}

func (e *EventStore) ListEvents(ctx context.Context) ([]*model.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListEvents")
	defer span.End()

	span.AddEvent("View bucket")
	var events []*model.Event
	return events, e.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEvent)).ForEach(func(_, v []byte) error {
			event := &model.Event{}
			if err := json.Unmarshal(v, event); err != nil {
				span.RecordError(err)
				return err
			}
			events = append(events, event)
			return nil
		})
	})
}
