// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for the message append
// endpoint.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// GetIdempotency returns a non-expired record for (sessionID, key) or
// ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, sessionID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("session_id = ? AND key = ? AND expires_at > ?", sessionID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency records the persisted message pair for (sessionID, key),
// including whether the pair's model turn is the generation-failure notice,
// and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, sessionID, key, userMessageID, modelMessageID string, generationFailed bool, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		Key:              key,
		UserMessageID:    userMessageID,
		ModelMessageID:   modelMessageID,
		GenerationFailed: generationFailed,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) || strings.Contains(strings.ToLower(err.Error()), "constraint failed") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
