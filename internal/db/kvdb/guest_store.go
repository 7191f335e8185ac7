// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

const (
	bucketGuest      = "guest_store"
	bucketGuestToken = "guest_token_index"
)

func NewGuestStore(bdb *bolt.DB) (*GuestStore, error) {
	return &GuestStore{db: bdb}, bdb.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketGuest)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bucketGuestToken))
		return err
	})
}

type GuestStore struct {
	db *bolt.DB
}

// tokenKey builds the index key <token>\x00<guest id>, so a cursor seek on
// <token>\x00 visits every guest sharing the token.
func tokenKey(token string, id uuid.UUID) []byte {
	return append(tokenPrefix(token), id[:]...)
}

func tokenPrefix(token string) []byte {
	return append([]byte(token), 0)
}

func (g *GuestStore) CreateGuest(ctx context.Context, guest *model.Guest) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "CreateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		span.AddEvent("uuid is nil, generate a new id")
		guest.ID = uuid.New()
	}
	now := time.Now()
	guest.CreatedAt = &now

	j, err := json.Marshal(guest)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}

	span.AddEvent("Update bucket")
	return guest.ID, g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		if bucket.Get(guest.ID[:]) != nil {
			span.RecordError(db.ErrAlreadyExists)
			return db.ErrAlreadyExists
		}
		if guest.Token != "" {
			if err := tx.Bucket([]byte(bucketGuestToken)).Put(tokenKey(guest.Token, guest.ID), nil); err != nil {
				return err
			}
		}
		return bucket.Put(guest.ID[:], j)
	})
}

func (g *GuestStore) UpdateGuest(ctx context.Context, guest *model.Guest) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		span.RecordError(db.ErrMissingID)
		return db.ErrMissingID
	}
	now := time.Now()
	guest.UpdatedAt = &now

	j, err := json.Marshal(guest)
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.AddEvent("Update bucket")
	return g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		res := bucket.Get(guest.ID[:])
		if res == nil {
			span.RecordError(db.ErrNotFound)
			span.SetStatus(codes.Error, db.ErrNotFound.Error())
			return db.ErrNotFound
		}
		var old model.Guest
		if err := json.Unmarshal(res, &old); err != nil {
			return err
		}
		if old.Token != guest.Token {
			index := tx.Bucket([]byte(bucketGuestToken))
			if old.Token != "" {
				if err := index.Delete(tokenKey(old.Token, guest.ID)); err != nil {
					return err
				}
			}
			if guest.Token != "" {
				if err := index.Put(tokenKey(guest.Token, guest.ID), nil); err != nil {
					return err
				}
			}
		}
		return bucket.Put(guest.ID[:], j)
	})
}

func (g *GuestStore) GetGuestByID(ctx context.Context, guestID uuid.UUID) (*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetGuestByID")
	defer span.End()

	span.AddEvent("View bucket")
	guest := &model.Guest{}
	err := g.db.View(func(tx *bolt.Tx) error {
		res := tx.Bucket([]byte(bucketGuest)).Get(guestID[:])
		if res == nil {
			return db.ErrNotFound
		}
		return json.Unmarshal(res, guest)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return guest, nil
}

func (g *GuestStore) ListGuests(ctx context.Context) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListGuests")
	defer span.End()

	span.AddEvent("View bucket")
	return g.filter(func(*model.Guest) bool { return true })
}

func (g *GuestStore) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListGuestsByEvent", trace.WithAttributes(attribute.String("event.id", eventID.String())))
	defer span.End()

	span.AddEvent("View bucket")
	return g.filter(func(guest *model.Guest) bool { return guest.EventID == eventID })
}

func (g *GuestStore) GetGuestsByToken(ctx context.Context, token string) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetGuestsByToken")
	defer span.End()

	guests := []*model.Guest{}
	if token == "" {
		return guests, nil
	}

	span.AddEvent("Seek token index")
	return guests, g.db.View(func(tx *bolt.Tx) error {
		prefix := tokenPrefix(token)
		guestBucket := tx.Bucket([]byte(bucketGuest))
		c := tx.Bucket([]byte(bucketGuestToken)).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			res := guestBucket.Get(k[len(prefix):])
			if res == nil {
				continue
			}
			guest := &model.Guest{}
			if err := json.Unmarshal(res, guest); err != nil {
				span.RecordError(err)
				return err
			}
			guests = append(guests, guest)
		}
		return nil
	})
}

func (g *GuestStore) filter(keep func(*model.Guest) bool) ([]*model.Guest, error) {
	var guests []*model.Guest
	return guests, g.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketGuest)).ForEach(func(_, v []byte) error {
			guest := &model.Guest{}
			if err := json.Unmarshal(v, guest); err != nil {
				return err
			}
			if keep(guest) {
				guests = append(guests, guest)
			}
			return nil
		})
	})
}
