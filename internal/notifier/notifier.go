// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package notifier tells organizers about RSVPs and admissions as they happen.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quixsi/checkin/internal/model"
)

type Notifier interface {
	NotifyRSVP(ctx context.Context, event *model.Event, guest *model.Guest) error
	NotifyAdmission(ctx context.Context, event *model.Event, guest *model.Guest) error
}

// LogNotifier writes notifications to a logger. It is used when no chat
// integration is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyRSVP(ctx context.Context, event *model.Event, guest *model.Guest) error {
	n.logger.InfoContext(ctx, "rsvp received",
		"event", event.Title,
		"guest", guest.FullName(),
		"response", guest.Response,
	)
	return nil
}

func (n *LogNotifier) NotifyAdmission(ctx context.Context, event *model.Event, guest *model.Guest) error {
	n.logger.InfoContext(ctx, "guest admitted",
		"event", event.Title,
		"guest", guest.FullName(),
		"seat", guest.SeatNumber,
	)
	return nil
}

func rsvpMessage(event *model.Event, guest *model.Guest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**RSVP Update**\n**Event:** %s\n**Guest:** %s\n**Response:** %s", event.Title, guest.FullName(), guest.Response)
	if guest.Email != "" {
		fmt.Fprintf(&b, "\n**Email:** %s", guest.Email)
	}
	return b.String()
}

func admissionMessage(event *model.Event, guest *model.Guest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Guest Admitted**\n**Event:** %s\n**Guest:** %s", event.Title, guest.FullName())
	if guest.SeatNumber != "" {
		fmt.Fprintf(&b, "\n**Seat:** %s", guest.SeatNumber)
	}
	return b.String()
}
