// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

// GuestStore persists guests. Guests are never removed, they are archived
// through their status field.
type GuestStore interface {
	CreateGuest(context.Context, *model.Guest) (uuid.UUID, error)
	UpdateGuest(context.Context, *model.Guest) error
	GetGuestByID(context.Context, uuid.UUID) (*model.Guest, error)
	ListGuests(context.Context) ([]*model.Guest, error)
	ListGuestsByEvent(context.Context, uuid.UUID) ([]*model.Guest, error)
	// GetGuestsByToken returns every guest carrying the token. An unknown
	// token yields an empty list, not an error.
	GetGuestsByToken(context.Context, string) ([]*model.Guest, error)
}
