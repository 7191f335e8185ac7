// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type GuestType string

const (
	GuestTypeRegular   GuestType = "regular"
	GuestTypeEntourage GuestType = "entourage"
	GuestTypeSponsor   GuestType = "sponsor"
)

func (t GuestType) Valid() bool {
	switch t {
	case GuestTypeRegular, GuestTypeEntourage, GuestTypeSponsor:
		return true
	}
	return false
}

// HasPhone reports whether guests of this type carry a phone number.
func (t GuestType) HasPhone() bool {
	return t == GuestTypeEntourage || t == GuestTypeSponsor
}

type Response string

const (
	ResponsePending  Response = "pending"
	ResponseAccepted Response = "accepted"
	ResponseDeclined Response = "declined"
)

func (r Response) Valid() bool {
	switch r {
	case ResponsePending, ResponseAccepted, ResponseDeclined:
		return true
	}
	return false
}

type AttendanceStatus string

const (
	AttendanceNotAdmitted AttendanceStatus = "not_admitted"
	AttendanceAdmitted    AttendanceStatus = "admitted"
)

func (s AttendanceStatus) Valid() bool {
	return s == AttendanceNotAdmitted || s == AttendanceAdmitted
}

type GuestStatus string

const (
	GuestStatusActive   GuestStatus = "active"
	GuestStatusArchived GuestStatus = "archived"
)

type Guest struct {
	ID               uuid.UUID        `json:"id" form:"-" gorm:"primaryKey;type:varchar(36)"`
	EventID          uuid.UUID        `json:"event_id" form:"-" gorm:"type:varchar(36);index"`
	CreatedAt        *time.Time       `json:"created_at" form:"-"`
	UpdatedAt        *time.Time       `json:"updated_at" form:"-"`
	FirstName        string           `json:"first_name" form:"first_name"`
	LastName         string           `json:"last_name" form:"last_name"`
	Email            string           `json:"email" form:"email"`
	Phone            string           `json:"phone,omitempty" form:"phone"`
	Type             GuestType        `json:"type" form:"type"`
	Response         Response         `json:"response" form:"response"`
	AttendanceStatus AttendanceStatus `json:"attendance_status" form:"-"`
	AdmittedAt       *time.Time       `json:"admitted_at,omitempty" form:"-"`
	SeatNumber       string           `json:"seat_number,omitempty" form:"seat_number"`
	Token            string           `json:"token,omitempty" form:"-" gorm:"type:varchar(64);index"`
	Images           []string         `json:"images,omitempty" form:"images" gorm:"serializer:json;type:text"`
	Status           GuestStatus      `json:"status" form:"-"`
}

func (g *Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

func (g *Guest) Admitted() bool {
	return g.AttendanceStatus == AttendanceAdmitted
}

func (g *Guest) Archived() bool {
	return g.Status == GuestStatusArchived
}

// Clone returns a deep copy that shares no slices or pointers with g.
func (g *Guest) Clone() *Guest {
	c := *g
	if g.Images != nil {
		c.Images = append([]string(nil), g.Images...)
	}
	c.CreatedAt = cloneTime(g.CreatedAt)
	c.UpdatedAt = cloneTime(g.UpdatedAt)
	c.AdmittedAt = cloneTime(g.AdmittedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
