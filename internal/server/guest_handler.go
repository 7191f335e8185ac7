// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/export"
	"github.com/quixsi/checkin/internal/model"
	"github.com/quixsi/checkin/internal/qr"
)

const maxQRSize = 1024

type guestHandler struct {
	logger    *slog.Logger
	publicURL string
	guests    GuestService
}

func (h *guestHandler) List(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.List")
	defer span.End()

	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	archived, _ := strconv.ParseBool(c.Query("archived"))
	guests, err := h.guests.ListGuests(ctx, eventID, archived)
	if err != nil {
		writeError(c, h.logger, "unable to list guests", err)
		return
	}
	c.JSON(http.StatusOK, guests)
}

func (h *guestHandler) Create(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.Create")
	defer span.End()

	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var guest model.Guest
	if err := bind(c, &guest); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.guests.CreateGuest(ctx, eventID, &guest)
	if err != nil {
		writeError(c, h.logger, "unable to create guest", err)
		return
	}
	h.logger.InfoContext(ctx, "guest created", "event", eventID, "guest", created.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *guestHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "guestid")
	if !ok {
		return
	}
	guest, err := h.guests.GetGuest(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "unable to get guest", err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

func (h *guestHandler) Update(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.Update")
	defer span.End()

	id, ok := paramID(c, "guestid")
	if !ok {
		return
	}
	var guest model.Guest
	if err := bind(c, &guest); err != nil {
		badRequest(c, err)
		return
	}
	guest.ID = id
	updated, err := h.guests.UpdateGuest(ctx, &guest)
	if err != nil {
		writeError(c, h.logger, "unable to update guest", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *guestHandler) Archive(c *gin.Context) {
	id, ok := paramID(c, "guestid")
	if !ok {
		return
	}
	if err := h.guests.ArchiveGuest(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "unable to archive guest", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *guestHandler) RSVPs(c *gin.Context) {
	id, ok := paramID(c, "guestid")
	if !ok {
		return
	}
	rsvps, err := h.guests.RSVPHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "unable to list rsvps", err)
		return
	}
	c.JSON(http.StatusOK, rsvps)
}

func (h *guestHandler) QRCode(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.QRCode")
	defer span.End()

	id, ok := paramID(c, "guestid")
	if !ok {
		return
	}
	size := qr.DefaultSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > maxQRSize {
			badRequest(c, fmt.Errorf("size must be between 64 and %d", maxQRSize))
			return
		}
		size = n
	}
	guest, err := h.guests.GetGuest(ctx, id)
	if err != nil {
		writeError(c, h.logger, "unable to get guest", err)
		return
	}
	png, err := qr.PNG(qr.ValidationURL(h.publicURL, guest.Token), size)
	if err != nil {
		writeError(c, h.logger, "unable to render qr code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *guestHandler) Export(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.Export")
	defer span.End()

	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	archived, _ := strconv.ParseBool(c.Query("archived"))
	guests, err := h.guests.ListGuests(ctx, eventID, archived)
	if err != nil {
		writeError(c, h.logger, "unable to list guests", err)
		return
	}
	var buf bytes.Buffer
	if err := export.GuestsCSV(ctx, &buf, guests); err != nil {
		writeError(c, h.logger, "unable to export guests", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="guests-%s.csv"`, eventID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
