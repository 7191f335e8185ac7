// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DirCamera treats a directory as a camera: a capture tool drops pictures
// into it and every new file becomes a frame. Files older than the stream
// are ignored.
type DirCamera struct {
	Dir string
}

func NewDirCamera(dir string) *DirCamera {
	return &DirCamera{Dir: dir}
}

func (c *DirCamera) Open(_ context.Context, _ Constraints) (Stream, error) {
	info, err := os.Stat(c.Dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%s: %w", c.Dir, ErrNoCamera)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%s: %w", c.Dir, ErrPermissionDenied)
	case err != nil:
		return nil, err
	case !info.IsDir():
		return nil, fmt.Errorf("%s is not a directory: %w", c.Dir, ErrNoCamera)
	}
	if _, err := os.ReadDir(c.Dir); errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%s: %w", c.Dir, ErrPermissionDenied)
	}
	return &dirStream{
		dir:   c.Dir,
		since: time.Now(),
		seen:  make(map[string]time.Time),
	}, nil
}

type dirStream struct {
	dir   string
	since time.Time

	mu      sync.Mutex
	seen    map[string]time.Time
	stopped bool
}

var frameExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

func (d *dirStream) Frame(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil, ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var (
		newest  string
		newestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !frameExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if mod.Before(d.since) {
			continue
		}
		if t, ok := d.seen[e.Name()]; ok && !mod.After(t) {
			continue
		}
		if newest == "" || mod.After(newestT) {
			newest, newestT = e.Name(), mod
		}
	}
	if newest == "" {
		return nil, ErrNoFrame
	}
	d.seen[newest] = newestT

	f, err := os.Open(filepath.Join(d.dir, newest))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", newest, err)
	}
	return img, nil
}

func (d *dirStream) Tracks() []Track {
	return []Track{d}
}

func (d *dirStream) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
}
