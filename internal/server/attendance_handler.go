// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/attendance"
	"github.com/quixsi/checkin/internal/model"
)

type attendanceHandler struct {
	logger *slog.Logger
	guests GuestService
}

type attendanceView struct {
	EventID    uuid.UUID      `json:"event_id"`
	Search     string         `json:"search"`
	Filter     string         `json:"filter"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
	Admitted   int            `json:"admitted"`
	Guests     []*model.Guest `json:"guests"`
}

// View renders one page of the attendance list. Query parameters search,
// filter, page and page_size are applied in that order.
func (h *attendanceHandler) View(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "AttendanceHandler.View")
	defer span.End()

	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	filter, err := attendance.ParseFilter(c.Query("filter"))
	if err != nil {
		badRequest(c, err)
		return
	}

	session := attendance.NewSession(h.guests)
	if err := session.Load(ctx, eventID); err != nil {
		writeError(c, h.logger, "unable to load guests", err)
		return
	}
	session.SetSearch(c.Query("search"))
	session.SetAttendanceFilter(filter)
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		session.SetPageSize(n)
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		session.SetPage(n)
	}

	admitted := 0
	for _, g := range session.Guests() {
		if g.Admitted() {
			admitted++
		}
	}
	c.JSON(http.StatusOK, attendanceView{
		EventID:    eventID,
		Search:     session.Search(),
		Filter:     string(session.Filter()),
		Page:       session.Page(),
		PageSize:   session.PageSize(),
		TotalPages: session.TotalPages(),
		Total:      len(session.FilteredGuests()),
		Admitted:   admitted,
		Guests:     session.PageGuests(),
	})
}

func (h *attendanceHandler) Guests(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	guests, err := h.guests.GuestsForAttendance(c.Request.Context(), eventID)
	if err != nil {
		writeEnvelopeError(c, h.logger, "unable to load guests", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: guests})
}

func (h *attendanceHandler) ByToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "token is required"})
		return
	}
	guests, err := h.guests.GuestsByToken(c.Request.Context(), token)
	if err != nil {
		writeEnvelopeError(c, h.logger, "unable to look up token", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: guests})
}

type attendanceUpdate struct {
	AttendanceStatus model.AttendanceStatus `json:"attendance_status" form:"attendance_status"`
}

func (h *attendanceHandler) UpdateStatus(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "AttendanceHandler.UpdateStatus")
	defer span.End()

	id, err := uuid.Parse(c.Param("guestid"))
	if err != nil {
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: "Guest not found"})
		return
	}
	var req attendanceUpdate
	if err := bind(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
		return
	}
	if err := h.guests.UpdateGuestAttendanceStatus(ctx, id, req.AttendanceStatus); err != nil {
		writeEnvelopeError(c, h.logger, "unable to update attendance", err)
		return
	}
	h.logger.InfoContext(ctx, "attendance updated", "guest", id, "status", req.AttendanceStatus)
	c.JSON(http.StatusOK, envelope{Success: true})
}
