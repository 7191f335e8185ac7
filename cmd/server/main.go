// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quixsi/checkin/internal/config"
	"github.com/quixsi/checkin/internal/db/backend"
	"github.com/quixsi/checkin/internal/notifier"
	"github.com/quixsi/checkin/internal/portal"
	"github.com/quixsi/checkin/internal/server"
	"github.com/quixsi/checkin/internal/service"
	"github.com/quixsi/checkin/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var cfg config.Server
	if err := config.Load(config.ServerFlags(), os.Args[1:], &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown")
}

func run(cfg config.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("otlp/gRPC", "address", cfg.OTLPAddr, "service", cfg.ServiceName)
	shutdownTracing, err := telemetry.SetupOTLP(ctx, cfg.OTLPAddr, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("unable to flush traces", "error", err)
		}
	}()

	database, err := backend.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	var notify notifier.Notifier = notifier.NewLogNotifier(logger.WithGroup("notifier"))
	if cfg.DiscordBotToken != "" {
		bot, err := notifier.NewDiscordBot(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			return err
		}
		notify = bot
		logger.Info("discord notifications enabled", "channel", cfg.DiscordChannelID)
	}

	events := service.NewEventService(database)
	guests := service.NewGuestService(database, database, database,
		service.WithNotifier(notify),
		service.WithLogger(logger.WithGroup("service")),
		service.WithGuestLimit(cfg.MaxGuestsPerEvent),
	)

	api := server.NewServer(server.Config{
		ServiceName:   cfg.ServiceName,
		PublicURL:     cfg.PublicURL,
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
	}, events, guests)
	invitations := portal.NewPortal(slog.Default().WithGroup("portal"), cfg.PublicURL, events, guests)

	mux := http.NewServeMux()
	mux.Handle("/admin/", api)
	mux.Handle("/", invitations.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("start and listen", "address", cfg.Addr, "db", cfg.DB)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
