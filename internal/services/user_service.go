// Package services – UserService
//
// This file implements subscriber onboarding and the partial-update merge
// rule. Subscription validates the email format and the topic set and rejects
// already-registered addresses; updates apply a shallow merge where each
// field present in the request replaces the stored field wholesale and
// omitted fields keep their previous value.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

// emailRE is a pragmatic format check; deliverability is not our problem.
var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserUpdate carries a partial update. Nil fields were omitted from the
// request and keep their stored value.
type UserUpdate struct {
	Topics      *[]string
	Preferences *map[string]any
}

// UserService implements subscription and preference management.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Subscribe creates a user record for email with the given topics.
// The email must be well-formed and not already registered; the topic set
// must contain at least one non-blank entry.
func (s *UserService) Subscribe(ctx context.Context, email string, topics []string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRE.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	cleaned := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyTopics
	}

	u, err := repo.CreateUser(ctx, s.DB, email, cleaned, nil)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// Update applies a shallow-merge partial update to the user. A topics field,
// when present, must still be non-empty; a preferences field replaces the
// whole stored map.
func (s *UserService) Update(ctx context.Context, userID string, upd UserUpdate) (*domain.User, error) {
	if upd.Topics != nil {
		cleaned := make([]string, 0, len(*upd.Topics))
		for _, t := range *upd.Topics {
			if t = strings.TrimSpace(t); t != "" {
				cleaned = append(cleaned, t)
			}
		}
		if len(cleaned) == 0 {
			return nil, ErrEmptyTopics
		}
		upd.Topics = &cleaned
	}

	u, err := repo.UpdateUser(ctx, s.DB, userID, repo.UserUpdate{
		Topics:      upd.Topics,
		Preferences: upd.Preferences,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Get fetches a user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
