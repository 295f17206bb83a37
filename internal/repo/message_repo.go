// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
//
// Ordering invariant: within a session, CreatedAt is strictly increasing in
// insertion order. CreateMessage enforces this by bumping the generated
// timestamp past the session's current newest message, so a model turn is
// always strictly after the user turn that triggered it and concurrent
// appends can never produce ambiguous order. Callers must serialize writes
// per session (the orchestrator holds a per-session lock around persistence).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// CreateMessage inserts a new message row for sessionID. The message ID and
// timestamp are generated here; callers never supply them. Sources should be
// nil for user turns and may be empty for model turns.
func CreateMessage(ctx context.Context, db *gorm.DB, sessionID, role, content string, sources []domain.Source) (*domain.Message, error) {
	ts := time.Now().UTC()
	if last, err := latestMessage(ctx, db, sessionID); err != nil {
		return nil, err
	} else if last != nil && !ts.After(last.CreatedAt) {
		ts = last.CreatedAt.Add(time.Microsecond)
	}

	m := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: ts,
	}
	if sources != nil {
		m.Sources = datatypes.NewJSONSlice(sources)
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// latestMessage returns the newest message in a session, or nil when the
// session log is empty.
func latestMessage(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the full session log ordered deterministically
// (CreatedAt ASC, ID ASC). It returns an empty slice for an empty log.
func ListMessages(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMessages returns the number of messages in a session. It uses a raw
// COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID).
		Scan(&total).Error
	return total, err
}

// GetMessage fetches a message by ID, or ErrNotFound if missing.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
