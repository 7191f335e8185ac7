// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

type ErrorReason int

const (
	ErrorReasonDeadline ErrorReason = iota
	ErrorReasonProcess
	ErrorReasonNotFound
	ErrorReasonInvalid
)

func (r ErrorReason) Message() string {
	switch r {
	case ErrorReasonDeadline:
		return "The RSVP deadline for this event has passed."
	case ErrorReasonNotFound:
		return "We could not find this invitation."
	case ErrorReasonInvalid:
		return "Please let us know whether you will attend."
	default:
		return "Something went wrong while processing your request."
	}
}
