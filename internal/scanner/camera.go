// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package scanner

import (
	"context"
	"errors"
	"image"
)

// Messages are shown to the operator as is.
var (
	ErrPermissionDenied = errors.New("Unable to access camera. Please check permissions.")
	ErrNoCamera         = errors.New("No camera found on this device.")
	// ErrNoFrame means the stream has no new picture yet.
	ErrNoFrame = errors.New("no frame available")
	// ErrStopped is returned by streams whose tracks were stopped.
	ErrStopped = errors.New("stream stopped")
)

type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

type Constraints struct {
	FacingMode FacingMode
}

// Camera hands out video streams. Implementations report a refused
// permission with ErrPermissionDenied and a missing device with ErrNoCamera.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

type Stream interface {
	// Frame returns the current picture or ErrNoFrame.
	Frame(ctx context.Context) (image.Image, error)
	Tracks() []Track
}

// Track is one stoppable source of a stream. Stopping every track releases
// the device.
type Track interface {
	Stop()
}

type Decoder interface {
	Decode(img image.Image) (string, error)
}
