package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

// FeedbackService records user ratings against model messages.
type FeedbackService struct {
	DB *gorm.DB
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{DB: db}
}

// Submit persists a feedback record. All three fields are required and the
// rated message must exist.
func (s *FeedbackService) Submit(ctx context.Context, messageID, userID, rating string) (*domain.Feedback, error) {
	messageID = strings.TrimSpace(messageID)
	userID = strings.TrimSpace(userID)
	rating = strings.TrimSpace(rating)
	if messageID == "" || userID == "" || rating == "" {
		return nil, ErrInvalidFeedback
	}

	if _, err := repo.GetMessage(ctx, s.DB, messageID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidFeedback
		}
		return nil, err
	}

	return repo.CreateFeedback(ctx, s.DB, messageID, userID, rating)
}
