// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package db

import "errors"

var (
	ErrNotFound      = errors.New("db: not found")
	ErrAlreadyExists = errors.New("db: already exists")
	ErrMissingID     = errors.New("db: id is required")
)
