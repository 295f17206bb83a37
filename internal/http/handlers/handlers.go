// Handler wiring.
//
// Handlers are transport-thin: they validate and normalize inputs, delegate
// to application services, and translate service errors into HTTP responses.
// The service contracts below keep transport concerns separate from business
// logic; implementations must be safe for concurrent use and honor the
// provided context.
package handlers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/services"
)

// UserService defines subscription lifecycle operations consumed by HTTP
// handlers.
type UserService interface {
	// Subscribe registers an email with an initial topic set.
	Subscribe(ctx context.Context, email string, topics []string) (*domain.User, error)
	// Update applies a shallow-merge partial update to a user.
	Update(ctx context.Context, userID string, upd services.UserUpdate) (*domain.User, error)
}

// ConversationService defines session and message operations.
type ConversationService interface {
	// CreateSession starts a session for an existing user.
	CreateSession(ctx context.Context, userID, title string) (*domain.Session, error)
	// Append persists a user turn, generates a model reply, and persists it.
	Append(ctx context.Context, sessionID, content string) (*services.MessagePair, error)
	// ListMessages returns the ordered session log.
	ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
	// ListSessions returns a user's sessions, newest first.
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)
}

// FeedbackService captures user ratings on messages.
type FeedbackService interface {
	Submit(ctx context.Context, messageID, userID, rating string) (*domain.Feedback, error)
}

// AnalyticsService ingests client usage events.
type AnalyticsService interface {
	Record(ctx context.Context, userID, eventType string, details map[string]any) (*domain.AnalyticsEvent, error)
}

// ArticleService serves the curated article catalogue.
type ArticleService interface {
	List(ctx context.Context, limit int) ([]domain.Article, error)
	Get(ctx context.Context, id string) (*domain.Article, error)
}

// Handlers groups the HTTP endpoints for the public API. DB is used only by
// the idempotency replay/store path on message appends; it may be nil in
// tests that do not exercise idempotency.
type Handlers struct {
	userSvc      UserService
	convSvc      ConversationService
	fbSvc        FeedbackService
	analyticsSvc AnalyticsService
	articleSvc   ArticleService

	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services. idemTTL
// bounds how long a recorded append can be replayed; values <= 0 default to
// 24 hours.
func New(userSvc UserService, convSvc ConversationService, fbSvc FeedbackService, analyticsSvc AnalyticsService, articleSvc ArticleService, db *gorm.DB, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{
		userSvc:      userSvc,
		convSvc:      convSvc,
		fbSvc:        fbSvc,
		analyticsSvc: analyticsSvc,
		articleSvc:   articleSvc,
		db:           db,
		idemTTL:      idemTTL,
	}
}
