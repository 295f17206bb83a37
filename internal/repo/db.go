// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// Open opens (or creates) the SQLite database behind the gateway and applies
// PRAGMAs. A connection failure here is the StoreUnavailable case: it is
// returned to the caller, never swallowed.
func Open(dsn string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (instead of a cryptic
	// sqlite "out of memory (14)" later).
	if dir := filepath.Dir(dsn); dir != "." && !isURIDSN(dsn) {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// isURIDSN reports whether the DSN uses sqlite URI syntax ("file:...") where
// no parent-directory check applies (memory DSNs in particular).
func isURIDSN(dsn string) bool {
	return len(dsn) > 5 && dsn[:5] == "file:"
}

// AutoMigrate creates or updates the schema for every persisted aggregate.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&domain.Message{},
		&domain.Feedback{},
		&domain.AnalyticsEvent{},
		&domain.Article{},
		&domain.Idempotency{},
	)
}
