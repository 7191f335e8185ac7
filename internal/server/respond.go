// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/parser/form"
	"github.com/quixsi/checkin/internal/service"
)

// envelope is the response shape the check-in desk consumes.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func statusOf(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrArchived), errors.Is(err, service.ErrLimitExceeded):
		return http.StatusConflict
	case errors.Is(err, service.ErrRSVPClosed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func recordError(ctx context.Context, logger *slog.Logger, msg string, err error) int {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, msg, "error", err)
	}
	return status
}

func writeError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status := recordError(c.Request.Context(), logger, msg, err)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(status, gin.H{"code": "VALIDATION_FAILED", "message": verr.Error(), "fields": verr.FieldErrors})
	case status == http.StatusInternalServerError:
		c.JSON(status, gin.H{"code": "INTERNAL_ERROR", "message": "Internal server error"})
	default:
		c.JSON(status, gin.H{"code": http.StatusText(status), "message": err.Error()})
	}
}

func writeEnvelopeError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status := recordError(c.Request.Context(), logger, msg, err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.JSON(status, envelope{Success: false, Message: message})
}

// bind decodes a JSON body or an urlencoded form into v.
func bind(c *gin.Context, v any) error {
	if c.ContentType() == binding.MIMEPOSTForm {
		if err := c.Request.ParseForm(); err != nil {
			return err
		}
		return form.Unmarshal(c.Request.PostForm, v)
	}
	return c.ShouldBindJSON(v)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		notFound(c)
		return uuid.Nil, false
	}
	return id, true
}
