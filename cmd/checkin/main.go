// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/attendance"
	"github.com/quixsi/checkin/internal/client"
	"github.com/quixsi/checkin/internal/config"
	"github.com/quixsi/checkin/internal/scanner"
	"github.com/quixsi/checkin/internal/telemetry"
)

func main() {
	var cfg config.Desk
	if err := config.Load(config.DeskFlags(), os.Args[1:], &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := telemetry.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	eventID, err := uuid.Parse(cfg.Event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --event %q: %v\n", cfg.Event, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(cfg.ServerURL, client.WithBasicAuth(cfg.AdminUser, cfg.AdminPassword))
	event, err := api.GetEvent(ctx, eventID)
	if err != nil {
		logger.Error("unable to load event", "event", eventID, "error", err)
		os.Exit(1)
	}

	toaster := &consoleToaster{out: os.Stdout}
	session := attendance.NewSession(api)
	sc := scanner.New(scanner.NewDirCamera(cfg.CameraDir), scanner.NewQRDecoder())
	flow := attendance.NewFlow(session, toaster,
		attendance.WithScanner(sc),
		attendance.WithTransitionHook(func(from, to attendance.State) {
			logger.Debug("admission flow", "from", from, "to", to)
			if to == attendance.GuestFound {
				toaster.Success("guest found, type confirm to review")
			}
		}),
	)
	defer sc.Close()

	d := &desk{
		out:         os.Stdout,
		eventID:     eventID,
		publicURL:   cfg.ServerURL,
		scanTimeout: cfg.ScanTimeout,
		session:     session,
		flow:        flow,
		toaster:     toaster,
	}

	fmt.Printf("%s, %s\n", event.Title, event.Date.Format("02 Jan 2006 15:04"))
	// Load starts a fresh view for the event, so the page size comes after it.
	err = session.Load(ctx, eventID)
	session.SetPageSize(cfg.PageSize)
	if err != nil {
		fmt.Println("error:", session.Err())
	} else {
		d.list()
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() || ctx.Err() != nil {
			break
		}
		if !d.exec(ctx, in.Text()) {
			break
		}
	}
	d.stopScan()
}
