// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quixsi/checkin/internal/db"
)

// Messages of these errors are shown to organizers and guests as is.
var (
	ErrEventNotFound = errors.New("Event not found")
	ErrGuestNotFound = errors.New("Guest not found")
	ErrRSVPClosed    = errors.New("RSVP is closed for this event")
	ErrLimitExceeded = errors.New("Guest limit reached for this event")
	ErrArchived      = errors.New("Record is archived")
)

// ValidationError collects field level problems of one request.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.FieldErrors[field]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// orNil keeps a typed nil pointer from turning into a non-nil error.
func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, db.ErrNotFound) {
		return sentinel
	}
	return err
}
