// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model. Sessions are immutable after creation; the gateway exposes only
// create, read, and list-by-owner.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// CreateSession inserts a new session owned by userID with the given title.
// The session ID is a generated UUID and CreatedAt is set to UTC; callers
// never supply identifiers or timestamps.
func CreateSession(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Session, error) {
	s := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by ID, or ErrNotFound if missing.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns all sessions belonging to userID, most recent first.
// It returns an empty slice when the user has no sessions.
func ListSessions(ctx context.Context, db *gorm.DB, userID string) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountSessions returns the total number of sessions owned by userID.
func CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}
