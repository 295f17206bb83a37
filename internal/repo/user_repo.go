// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation, e.g. subscribing an
// email address that already has a user record.
var ErrDuplicate = errors.New("duplicate")

// UserUpdate carries the fields of a partial user update. A nil field is
// "omitted from the request" and leaves the stored value untouched; a non-nil
// field fully replaces it (shallow merge, per the merge-update rule).
type UserUpdate struct {
	Topics      *[]string
	Preferences *map[string]any
}

// CreateUser inserts a new user row. The user ID is a generated UUID and
// CreatedAt is set by the store; callers never supply identifiers or
// timestamps. Returns ErrDuplicate when the email is already registered.
func CreateUser(ctx context.Context, db *gorm.DB, email string, topics []string, prefs map[string]any) (*domain.User, error) {
	u := &domain.User{
		ID:          uuid.NewString(),
		Email:       email,
		Topics:      datatypes.NewJSONSlice(topics),
		Preferences: datatypes.JSONMap(prefs),
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, or ErrNotFound if missing.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a shallow merge update to the user identified by id:
// each field present in upd replaces the stored field wholesale, omitted
// fields keep their previous value. Returns the updated record, or
// ErrNotFound when the user does not exist.
func UpdateUser(ctx context.Context, db *gorm.DB, id string, upd UserUpdate) (*domain.User, error) {
	cols := map[string]any{}
	if upd.Topics != nil {
		cols["topics"] = datatypes.NewJSONSlice(*upd.Topics)
	}
	if upd.Preferences != nil {
		cols["preferences"] = datatypes.JSONMap(*upd.Preferences)
	}

	if len(cols) > 0 {
		res := db.WithContext(ctx).
			Model(&domain.User{}).
			Where("id = ?", id).
			Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return GetUser(ctx, db, id)
}

// isUniqueViolation detects unique-constraint failures across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
