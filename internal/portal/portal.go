// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package portal serves the guest facing invitation pages.
package portal

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	sloghttp "github.com/samber/slog-http"

	"github.com/quixsi/checkin/internal/model"
)

//go:embed templates/*.html
var templates embed.FS

type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

type GuestService interface {
	GuestByToken(ctx context.Context, token string) (*model.Guest, error)
	SubmitRSVP(ctx context.Context, token string, response model.Response, message string) (*model.Guest, error)
}

type Portal struct {
	logger    *slog.Logger
	publicURL string
	events    EventReader
	guests    GuestService
	now       func() time.Time

	tmplInvitation *template.Template
	tmplError      *template.Template
}

func NewPortal(
	logger *slog.Logger,
	publicURL string,
	events EventReader,
	guests GuestService,
) *Portal {
	base := []string{"templates/main.html"}
	return &Portal{
		logger:         logger,
		publicURL:      publicURL,
		events:         events,
		guests:         guests,
		now:            time.Now,
		tmplInvitation: template.Must(template.ParseFS(templates, append(base, "templates/invitation.html")...)),
		tmplError:      template.Must(template.ParseFS(templates, append(base, "templates/error.html")...)),
	}
}

// Handler returns the portal routes wrapped in request logging.
func (p *Portal) Handler() http.Handler {
	mux := http.NewServeMux()

	loggerMW := sloghttp.NewWithConfig(
		p.logger, sloghttp.Config{
			DefaultLevel:     slog.LevelInfo,
			ClientErrorLevel: slog.LevelWarn,
			ServerErrorLevel: slog.LevelError,
			WithUserAgent:    true,
		},
	)

	registerRoutes(mux, p.addRoutes())
	return loggerMW(mux)
}
