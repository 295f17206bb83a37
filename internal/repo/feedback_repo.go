// Package repo implements the persistence gateway for domain entities,
// backed by GORM. This file covers the intake aggregates: feedback records
// and analytics events. Both are single independent inserts with no ordering
// or atomicity requirement.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// CreateFeedback inserts a feedback row for a message.
func CreateFeedback(ctx context.Context, db *gorm.DB, messageID, userID, rating string) (*domain.Feedback, error) {
	fb := &domain.Feedback{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

// CreateAnalyticsEvent inserts an analytics event row.
func CreateAnalyticsEvent(ctx context.Context, db *gorm.DB, userID, eventType string, details map[string]any) (*domain.AnalyticsEvent, error) {
	ev := &domain.AnalyticsEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		Details:   datatypes.JSONMap(details),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}
