// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package scanner reads QR codes from a camera until the first one decodes.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const DefaultInterval = 100 * time.Millisecond

// Scanner runs at most one camera session at a time. A session ends on the
// first decoded code, on Close, or when the context of Open is done; in every
// case all tracks are stopped.
type Scanner struct {
	camera   Camera
	decoder  Decoder
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	cur      *session
	onDecode func(string)
	lastErr  string
}

type session struct {
	gen    uint64
	stream Stream
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *session) stopTracks() {
	s.once.Do(func() {
		for _, t := range s.stream.Tracks() {
			t.Stop()
		}
	})
}

func New(camera Camera, decoder Decoder) *Scanner {
	return &Scanner{
		camera:   camera,
		decoder:  decoder,
		interval: DefaultInterval,
		logger:   slog.Default().WithGroup("scanner"),
	}
}

// SetInterval changes the pause between two frames.
func (s *Scanner) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// Open requests the environment facing camera and starts decoding. onDecode
// is called once, from the decode goroutine, after the camera was released.
// A running session is closed first.
func (s *Scanner) Open(ctx context.Context, onDecode func(text string)) error {
	s.Close()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.onDecode = onDecode
	s.mu.Unlock()

	stream, err := s.camera.Open(ctx, Constraints{FacingMode: FacingEnvironment})
	if err != nil {
		err = cameraError(err)
		s.logger.DebugContext(ctx, "camera unavailable", "error", err)
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Close or another Open ran while the camera was starting
		for _, t := range stream.Tracks() {
			t.Stop()
		}
		return context.Canceled
	}
	loopCtx, cancel := context.WithCancel(ctx)
	sess := &session{
		gen:    gen,
		stream: stream,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.cur = sess
	s.lastErr = ""
	go s.loop(loopCtx, sess, onDecode, s.interval)
	return nil
}

// Retry requests the camera again with the callback of the last Open.
func (s *Scanner) Retry(ctx context.Context) error {
	s.mu.Lock()
	onDecode := s.onDecode
	s.mu.Unlock()
	if onDecode == nil {
		return errors.New("scanner was never opened")
	}
	return s.Open(ctx, onDecode)
}

// Close stops the running session and waits for its decode loop to exit.
// It is safe to call repeatedly and from within the decode callback.
func (s *Scanner) Close() error {
	s.mu.Lock()
	sess := s.cur
	s.cur = nil
	s.gen++
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	sess.cancel()
	sess.stopTracks()
	<-sess.done
	return nil
}

// Active reports whether a session is running.
func (s *Scanner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// LastError returns the message of the last failed camera request.
func (s *Scanner) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scanner) loop(ctx context.Context, sess *session, onDecode func(string), interval time.Duration) {
	defer close(sess.done)
	defer sess.stopTracks()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.release(sess)
			return
		case <-ticker.C:
		}

		img, err := sess.stream.Frame(ctx)
		if err != nil {
			continue
		}
		text, err := s.decoder.Decode(img)
		if err != nil || text == "" {
			// no code in this frame
			continue
		}

		sess.stopTracks()
		if !s.release(sess) {
			return
		}
		sess.cancel()
		onDecode(text)
		return
	}
}

// release detaches sess if it is still the current session.
func (s *Scanner) release(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != sess || s.gen != sess.gen {
		return false
	}
	s.cur = nil
	return true
}

func cameraError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ErrPermissionDenied
	case errors.Is(err, ErrNoCamera):
		return ErrNoCamera
	}
	return err
}
