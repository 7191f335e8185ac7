// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
)

// writeJSON replaces filename atomically with the indented JSON encoding of v.
func writeJSON(ctx context.Context, filename string, v any) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "SaveToFile")
	defer span.End()

	fileData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		span.RecordError(err)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*")
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := tmp.Write(fileData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		span.RecordError(err)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// readJSON decodes filename into v. A missing file leaves v untouched.
func readJSON(filename string, v any) error {
	fileData, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(fileData) == 0 {
		return nil
	}
	return json.Unmarshal(fileData, v)
}
