// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

type EventStore interface {
	CreateEvent(context.Context, *model.Event) (uuid.UUID, error)
	UpdateEvent(context.Context, *model.Event) error
	GetEventByID(context.Context, uuid.UUID) (*model.Event, error)
	ListEvents(context.Context) ([]*model.Event, error)
}
