// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/model"
)

const bucketRSVP = "rsvp_store"

func NewRSVPStore(bdb *bolt.DB) (*RSVPStore, error) {
	return &RSVPStore{db: bdb}, bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRSVP))
		return err
	})
}

type RSVPStore struct {
	db *bolt.DB
}

func (r *RSVPStore) CreateRSVP(ctx context.Context, rsvp *model.RSVP) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "CreateRSVP")
	defer span.End()

	if rsvp.ID == uuid.Nil {
		rsvp.ID = uuid.New()
	}
	if rsvp.CreatedAt.IsZero() {
		rsvp.CreatedAt = time.Now()
	}

	j, err := json.Marshal(rsvp)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	span.AddEvent("Update bucket")
	return rsvp.ID, r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRSVP)).Put(rsvp.ID[:], j)
	})
}

func (r *RSVPStore) ListRSVPs(ctx context.Context) ([]*model.RSVP, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListRSVPs")
	defer span.End()

	return r.filter(func(*model.RSVP) bool { return true })
}

func (r *RSVPStore) ListRSVPsByGuest(ctx context.Context, guestID uuid.UUID) ([]*model.RSVP, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListRSVPsByGuest")
	defer span.End()

	return r.filter(func(rsvp *model.RSVP) bool { return rsvp.GuestID == guestID })
}

func (r *RSVPStore) filter(keep func(*model.RSVP) bool) ([]*model.RSVP, error) {
	var rsvps []*model.RSVP
	return rsvps, r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRSVP)).ForEach(func(_, v []byte) error {
			rsvp := &model.RSVP{}
			if err := json.Unmarshal(v, rsvp); err != nil {
				return err
			}
			if keep(rsvp) {
				rsvps = append(rsvps, rsvp)
			}
			return nil
		})
	})
}
