// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package sqldb implements the stores on top of gorm. Any gorm dialector
// works; the backend package wires sqlite and postgres.
package sqldb

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quixsi/checkin/internal/db"
	"github.com/quixsi/checkin/internal/model"
)

// Open connects through dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := gdb.AutoMigrate(&model.Event{}, &model.Guest{}, &model.RSVP{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return gdb, nil
}

// Close releases the connection pool behind gdb.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return db.ErrAlreadyExists
	}
	return err
}
