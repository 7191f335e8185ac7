// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventKindWedding  EventKind = "wedding"
	EventKindBirthday EventKind = "birthday"
	EventKindSeminar  EventKind = "seminar"
	EventKindOther    EventKind = "other"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventKindWedding, EventKindBirthday, EventKindSeminar, EventKindOther:
		return true
	}
	return false
}

type EventStatus string

const (
	EventStatusActive   EventStatus = "active"
	EventStatusArchived EventStatus = "archived"
)

type Event struct {
	ID           uuid.UUID   `json:"id" form:"-" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt    *time.Time  `json:"created_at" form:"-"`
	UpdatedAt    *time.Time  `json:"updated_at" form:"-"`
	Title        string      `json:"title" form:"title"`
	Kind         EventKind   `json:"kind" form:"kind"`
	Description  string      `json:"description,omitempty" form:"description"`
	Location     *Location   `json:"location,omitempty" form:"location" gorm:"serializer:json;type:text"`
	Date         time.Time   `json:"date" form:"date"`
	RSVPDeadline *time.Time  `json:"rsvp_deadline,omitempty" form:"rsvp_deadline"`
	Status       EventStatus `json:"status" form:"-"`
}

// RSVPOpen reports whether guests may still answer at the given time.
func (e *Event) RSVPOpen(now time.Time) bool {
	if e.Status == EventStatusArchived {
		return false
	}
	return e.RSVPDeadline == nil || now.Before(*e.RSVPDeadline)
}

type Location struct {
	ID           uuid.UUID  `json:"id"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	Name         string     `json:"name,omitempty" form:"name"`
	URL          string     `json:"url,omitempty" form:"url"`
	Country      string     `json:"country,omitempty" form:"country"`
	City         string     `json:"city,omitempty" form:"city"`
	ZipCode      string     `json:"zipcode,omitempty" form:"zipcode"`
	Street       string     `json:"street,omitempty" form:"street"`
	StreetNumber string     `json:"street_number,omitempty" form:"street_number"`
	Longitude    float64    `json:"longitude,omitempty" form:"longitude"`
	Latitude     float64    `json:"latitude,omitempty" form:"latitude"`
	Website      string     `json:"website,omitempty" form:"website"`
}
