// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package server implements the organizer API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/attendance"
	"github.com/quixsi/checkin/internal/model"
)

type EventService interface {
	CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) (*model.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
	ListEvents(ctx context.Context, includeArchived bool) ([]*model.Event, error)
	ArchiveEvent(ctx context.Context, id uuid.UUID) error
}

type GuestService interface {
	attendance.GuestService
	CreateGuest(ctx context.Context, eventID uuid.UUID, guest *model.Guest) (*model.Guest, error)
	UpdateGuest(ctx context.Context, guest *model.Guest) (*model.Guest, error)
	GetGuest(ctx context.Context, id uuid.UUID) (*model.Guest, error)
	ListGuests(ctx context.Context, eventID uuid.UUID, includeArchived bool) ([]*model.Guest, error)
	ArchiveGuest(ctx context.Context, id uuid.UUID) error
	RSVPHistory(ctx context.Context, guestID uuid.UUID) ([]*model.RSVP, error)
}

type Config struct {
	ServiceName   string
	PublicURL     string
	AdminUser     string
	AdminPassword string
}

type Server struct {
	cfg    Config
	logger *slog.Logger
	events EventService
	guests GuestService
	mux    *gin.Engine
}

func NewServer(cfg Config, events EventService, guests GuestService) *Server {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:    cfg,
		logger: slog.Default().WithGroup("http"),
		events: events,
		guests: guests,
		mux:    gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Use(
		sloggin.NewWithConfig(s.logger,
			sloggin.Config{
				DefaultLevel:     slog.LevelInfo,
				ClientErrorLevel: slog.LevelWarn,
				ServerErrorLevel: slog.LevelError,
			},
		),
		gin.Recovery(), otelgin.Middleware(s.cfg.ServiceName), slogAddTraceAttributes,
	)

	s.mux.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	adminArea := s.mux.Group("/admin")
	adminArea.Use(basicAuth(s.cfg.AdminUser, s.cfg.AdminPassword))

	eh := &eventHandler{logger: s.logger, events: s.events}
	adminArea.GET("/events", eh.List)
	adminArea.POST("/events", eh.Create)
	adminArea.GET("/events/:id", eh.Get)
	adminArea.PUT("/events/:id", eh.Update)
	adminArea.DELETE("/events/:id", eh.Archive)

	gh := &guestHandler{logger: s.logger, publicURL: s.cfg.PublicURL, guests: s.guests}
	adminArea.GET("/events/:id/guests", gh.List)
	adminArea.POST("/events/:id/guests", gh.Create)
	adminArea.GET("/events/:id/guests/export.csv", gh.Export)
	adminArea.GET("/guests/:guestid", gh.Get)
	adminArea.PUT("/guests/:guestid", gh.Update)
	adminArea.DELETE("/guests/:guestid", gh.Archive)
	adminArea.GET("/guests/:guestid/rsvps", gh.RSVPs)
	adminArea.GET("/guests/:guestid/qr.png", gh.QRCode)

	ah := &attendanceHandler{logger: s.logger, guests: s.guests}
	adminArea.GET("/events/:id/attendance", ah.View)
	adminArea.GET("/events/:id/attendance/guests", ah.Guests)
	adminArea.GET("/guests", ah.ByToken)
	adminArea.PUT("/guests/:guestid/attendance", ah.UpdateStatus)

	s.mux.NoRoute(notFound)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "message": "Page not found"})
}

func slogAddTraceAttributes(c *gin.Context) {
	sloggin.AddCustomAttributes(c,
		slog.String("trace-id", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
	)
	sloggin.AddCustomAttributes(c,
		slog.String("span-id", trace.SpanFromContext(c.Request.Context()).SpanContext().SpanID().String()),
	)
	c.Next()
}
