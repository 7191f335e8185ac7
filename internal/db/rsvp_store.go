// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

type RSVPStore interface {
	CreateRSVP(context.Context, *model.RSVP) (uuid.UUID, error)
	ListRSVPs(context.Context) ([]*model.RSVP, error)
	ListRSVPsByGuest(context.Context, uuid.UUID) ([]*model.RSVP, error)
}
