// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/quixsi/checkin/internal/db/dbtest"
	"github.com/quixsi/checkin/internal/model"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	bdb, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt db: %v", err)
	}
	t.Cleanup(func() { bdb.Close() })
	return bdb
}

func TestEventStore(t *testing.T) {
	store, err := NewEventStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	dbtest.TestEventStore(t, store)
}

func TestGuestStore(t *testing.T) {
	store, err := NewGuestStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	dbtest.TestGuestStore(t, store)
}

func TestRSVPStore(t *testing.T) {
	store, err := NewRSVPStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	dbtest.TestRSVPStore(t, store)
}

func TestGuestStore_TokenPrefixIsolation(t *testing.T) {
	store, err := NewGuestStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, token := range []string{"ABC", "ABC123"} {
		if _, err := store.CreateGuest(ctx, &model.Guest{EventID: uuid.New(), Token: token}); err != nil {
			t.Fatal(err)
		}
	}

	guests, err := store.GetGuestsByToken(ctx, "ABC")
	if err != nil {
		t.Fatal(err)
	}
	if len(guests) != 1 || guests[0].Token != "ABC" {
		t.Errorf("lookup of ABC returned %v", guests)
	}
}
