// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/model"
)

type eventHandler struct {
	logger *slog.Logger
	events EventService
}

func (h *eventHandler) List(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "EventHandler.List")
	defer span.End()

	archived, _ := strconv.ParseBool(c.Query("archived"))
	events, err := h.events.ListEvents(ctx, archived)
	if err != nil {
		writeError(c, h.logger, "unable to list events", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *eventHandler) Create(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "EventHandler.Create")
	defer span.End()

	var event model.Event
	if err := bind(c, &event); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.events.CreateEvent(ctx, &event)
	if err != nil {
		writeError(c, h.logger, "unable to create event", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *eventHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	event, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "unable to get event", err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *eventHandler) Update(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "EventHandler.Update")
	defer span.End()

	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var event model.Event
	if err := bind(c, &event); err != nil {
		badRequest(c, err)
		return
	}
	event.ID = id
	updated, err := h.events.UpdateEvent(ctx, &event)
	if err != nil {
		writeError(c, h.logger, "unable to update event", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *eventHandler) Archive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.events.ArchiveEvent(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "unable to archive event", err)
		return
	}
	c.Status(http.StatusNoContent)
}
