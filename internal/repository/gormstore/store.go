// Package gormstore is the relational implementation of the claim stores,
// backed by PostgreSQL in production.
package gormstore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"claim-assistant/internal/logger"
)

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, baseLog *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("gormstore: db must not be nil")
	}
	if baseLog == nil {
		return nil, errors.New("gormstore: logger must not be nil")
	}
	return &Store{db: db, log: baseLog.With("repo", "gormstore")}, nil
}

// Config returns the gorm settings shared by every dialector. Driver errors
// are translated so unique violations surface as gorm.ErrDuplicatedKey.
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	}
}

// Open connects to PostgreSQL.
func Open(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("gormstore: dsn must not be empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("gormstore: open: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&conditionRow{},
		&serviceHistoryRow{},
		&interviewRow{},
		&documentRow{},
	); err != nil {
		return fmt.Errorf("gormstore: migrate: %w", err)
	}
	return nil
}
