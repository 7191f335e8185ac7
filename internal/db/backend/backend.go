// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package backend opens one of the store implementations from a connection
// string of the form <scheme>://<location>.
//
//	kvdb://data/checkin.db         bbolt file
//	json://data                    directory of JSON files
//	sqlite://data/checkin.sqlite   sqlite through gorm
//	postgres://user:pw@host/db     postgres through gorm
package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/db/jsondb"
	"github.com/quixsi/checkin/internal/db/kvdb"
	"github.com/quixsi/checkin/internal/db/sqldb"
)

var ErrUnknownScheme = errors.New("unknown storage backend")

// Database bundles every store of one backend.
type Database interface {
	db.EventStore
	db.GuestStore
	db.RSVPStore
	Close() error
}

type dbWrapper struct {
	db.EventStore
	db.GuestStore
	db.RSVPStore

	closeFN func() error
}

func (d *dbWrapper) Close() error {
	return d.closeFN()
}

// Open parses dsn and opens the matching backend.
func Open(dsn string) (Database, error) {
	scheme, location, ok := strings.Cut(dsn, "://")
	if !ok || location == "" {
		return nil, fmt.Errorf("invalid db connection string %q", dsn)
	}

	switch scheme {
	case "kvdb":
		return openKVDB(location)
	case "json":
		return openJSONDB(location)
	case "sqlite":
		return openSQL(sqlite.Open(location))
	case "postgres", "postgresql":
		return openSQL(postgres.Open(dsn))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
}

func openKVDB(path string) (Database, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	eventStore, err := kvdb.NewEventStore(bdb)
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("initialize event bucket: %w", err)
	}
	guestStore, err := kvdb.NewGuestStore(bdb)
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("initialize guest bucket: %w", err)
	}
	rsvpStore, err := kvdb.NewRSVPStore(bdb)
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("initialize rsvp bucket: %w", err)
	}
	return &dbWrapper{
		EventStore: eventStore,
		GuestStore: guestStore,
		RSVPStore:  rsvpStore,
		closeFN:    bdb.Close,
	}, nil
}

func openJSONDB(dir string) (Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	eventStore, err := jsondb.NewEventStore(filepath.Join(dir, "events.json"))
	if err != nil {
		return nil, fmt.Errorf("initialize event store: %w", err)
	}
	guestStore, err := jsondb.NewGuestStore(filepath.Join(dir, "guests.json"))
	if err != nil {
		return nil, fmt.Errorf("initialize guest store: %w", err)
	}
	rsvpStore, err := jsondb.NewRSVPStore(filepath.Join(dir, "rsvps.json"))
	if err != nil {
		return nil, fmt.Errorf("initialize rsvp store: %w", err)
	}
	return &dbWrapper{
		EventStore: eventStore,
		GuestStore: guestStore,
		RSVPStore:  rsvpStore,
		closeFN:    func() error { return nil },
	}, nil
}

func openSQL(dialector gorm.Dialector) (Database, error) {
	gdb, err := sqldb.Open(dialector)
	if err != nil {
		return nil, err
	}
	return &dbWrapper{
		EventStore: sqldb.NewEventStore(gdb),
		GuestStore: sqldb.NewGuestStore(gdb),
		RSVPStore:  sqldb.NewRSVPStore(gdb),
		closeFN:    func() error { return sqldb.Close(gdb) },
	}, nil
}
