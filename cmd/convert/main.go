// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/quixsi/checkin/internal/config"
	"github.com/quixsi/checkin/internal/db/backend"
	"github.com/quixsi/checkin/internal/model"
	"github.com/quixsi/checkin/internal/telemetry"
)

func main() {
	var cfg config.Convert
	if err := config.Load(config.ConvertFlags(), os.Args[1:], &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := telemetry.NewLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	src, err := backend.Open(cfg.From)
	if err != nil {
		logger.Error("could not open source", "dsn", cfg.From, "error", err)
		os.Exit(1)
	}
	defer src.Close()
	dst, err := backend.Open(cfg.To)
	if err != nil {
		logger.Error("could not open destination", "dsn", cfg.To, "error", err)
		os.Exit(1)
	}
	defer dst.Close()

	logger.Info("start converting", "from", cfg.From, "to", cfg.To)
	n, err := into(context.Background(), dst, src)
	if err != nil {
		logger.Error("conversion failed", "error", err)
		os.Exit(1)
	}
	logger.Info("finished converting", "events", n.events, "guests", n.guests, "rsvps", n.rsvps)
}

type counts struct {
	events, guests, rsvps int
}

// into copies every record of src into dst keeping ids and tokens.
func into(ctx context.Context, dst, src backend.Database) (counts, error) {
	var n counts

	events, err := src.ListEvents(ctx)
	if err != nil {
		return n, fmt.Errorf("list events: %w", err)
	}
	for _, e := range events {
		if _, err := dst.CreateEvent(ctx, e); err != nil {
			return n, fmt.Errorf("create event %s: %w", e.ID, err)
		}
		n.events++
	}

	guests, err := src.ListGuests(ctx)
	if err != nil {
		return n, fmt.Errorf("list guests: %w", err)
	}
	slices.SortStableFunc(guests, func(a, b *model.Guest) int {
		return createdAt(a.CreatedAt).Compare(createdAt(b.CreatedAt))
	})
	for _, g := range guests {
		if _, err := dst.CreateGuest(ctx, g); err != nil {
			return n, fmt.Errorf("create guest %s: %w", g.ID, err)
		}
		n.guests++
	}

	rsvps, err := src.ListRSVPs(ctx)
	if err != nil {
		return n, fmt.Errorf("list rsvps: %w", err)
	}
	slices.SortStableFunc(rsvps, func(a, b *model.RSVP) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	for _, r := range rsvps {
		if _, err := dst.CreateRSVP(ctx, r); err != nil {
			return n, fmt.Errorf("create rsvp %s: %w", r.ID, err)
		}
		n.rsvps++
	}
	return n, nil
}

func createdAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
