package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

// AnalyticsService ingests client-side usage events. Events are fire-and-
// forget: the handler acknowledges before callers can observe the row.
type AnalyticsService struct {
	DB *gorm.DB
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

// Record persists a usage event. UserID and EventType are required; Details
// is an arbitrary JSON object and may be nil.
func (s *AnalyticsService) Record(ctx context.Context, userID, eventType string, details map[string]any) (*domain.AnalyticsEvent, error) {
	userID = strings.TrimSpace(userID)
	eventType = strings.TrimSpace(eventType)
	if userID == "" || eventType == "" {
		return nil, ErrInvalidEvent
	}
	return repo.CreateAnalyticsEvent(ctx, s.DB, userID, eventType, details)
}
