// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"time"

	"github.com/google/uuid"
)

// RSVP is one answer submitted by a guest. The guest record carries the
// latest response, RSVPs keep the history.
type RSVP struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID   uuid.UUID `json:"event_id" gorm:"type:varchar(36);index"`
	GuestID   uuid.UUID `json:"guest_id" gorm:"type:varchar(36);index"`
	Response  Response  `json:"response"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
