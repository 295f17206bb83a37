// Package services – ConversationService
//
// This file implements the conversation orchestrator: session creation,
// message-pair append, and read-back. An append runs a small state machine:
// validate input, persist the user turn unconditionally, call the generative
// provider with the full ordered history, then persist the model turn. The
// user write happens before any remote call, so the caller's input is never
// lost; when generation fails the model turn is a fixed failure notice, which
// keeps the log pair-atomic (never a user turn without a model turn).
//
// Concurrency: appends against the same session are serialized around the
// persistence steps by a per-session lock. The lock is released during the
// provider call so one slow generation cannot block unrelated work, and the
// store layer's strictly-monotonic per-session timestamps keep the persisted
// order unambiguous across the lock handoff.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/llm"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

// GenerationFailureNotice is the fixed content stored as the model turn when
// generation could not be completed. It preserves pair-atomicity: every
// append leaves behind exactly one user turn and one model turn.
const GenerationFailureNotice = "I couldn't generate a response right now. Please try again in a moment."

// Generator produces a model reply from the ordered session history.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, history []domain.Message) (llm.Reply, error)
}

// MessagePair is the result of one append: the persisted user turn and its
// corresponding model turn. GenerationFailed marks pairs whose model turn is
// the failure notice.
type MessagePair struct {
	UserMessage      *domain.Message `json:"user_message"`
	ModelMessage     *domain.Message `json:"model_message"`
	GenerationFailed bool            `json:"generation_failed,omitempty"`
}

// ConversationService coordinates the generative client and the persistence
// gateway for sessions and messages.
type ConversationService struct {
	DB        *gorm.DB
	Generator Generator

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB, g Generator) *ConversationService {
	return &ConversationService{
		DB:           db,
		Generator:    g,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// CreateSession verifies the owning user exists and persists a new session
// with the given title.
func (s *ConversationService) CreateSession(ctx context.Context, userID, title string) (*domain.Session, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "CreateSession",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return repo.CreateSession(ctx, s.DB, userID, title)
}

// Append validates content, persists the user turn, generates a model reply
// from the full ordered history, and persists the model turn. It returns the
// pair; generation failures are reported through MessagePair.GenerationFailed
// rather than an error, so the log always gains exactly two messages.
// Storage failures abort the operation and propagate.
func (s *ConversationService) Append(ctx context.Context, sessionID, content string) (*MessagePair, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if _, err := repo.GetSession(ctx, s.DB, sessionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	lock := s.lockFor(sessionID)

	// Persist the user turn before any remote work and read the history it
	// belongs to, under the session lock.
	lock.Lock()
	userMsg, err := repo.CreateMessage(ctx, s.DB, sessionID, domain.RoleUser, content, nil)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	history, err := repo.ListMessages(ctx, s.DB, sessionID)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	// Remote call happens outside the lock.
	reply, genErr := s.Generator.Generate(ctx, history)

	modelContent := reply.Text
	modelSources := reply.Sources
	failed := false
	if genErr != nil {
		if !errors.Is(genErr, llm.ErrGenerationRejected) && !errors.Is(genErr, llm.ErrGenerationUnavailable) {
			// Anything else (cancelled caller included) is treated the same
			// way: the user turn is already durable, so compensate with the
			// failure notice rather than leaving the pair open.
			span.RecordError(genErr)
		}
		modelContent = GenerationFailureNotice
		modelSources = nil
		failed = true
	}
	if modelSources == nil {
		modelSources = []domain.Source{}
	}

	// The model write must complete even if the caller has disconnected;
	// otherwise the log would hold a user turn with no model turn.
	writeCtx := context.WithoutCancel(ctx)

	lock.Lock()
	modelMsg, err := repo.CreateMessage(writeCtx, s.DB, sessionID, domain.RoleModel, modelContent, modelSources)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	return &MessagePair{
		UserMessage:      userMsg,
		ModelMessage:     modelMsg,
		GenerationFailed: failed,
	}, nil
}

// ListMessages returns the ordered log for a session, or ErrSessionNotFound
// when the session does not exist. An existing session with no messages
// yields an empty slice.
func (s *ConversationService) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if _, err := repo.GetSession(ctx, s.DB, sessionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return repo.ListMessages(ctx, s.DB, sessionID)
}

// ListSessions returns all sessions for a user, or ErrUserNotFound when the
// user does not exist. An existing user with no sessions yields an empty
// slice.
func (s *ConversationService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return repo.ListSessions(ctx, s.DB, userID)
}

// lockFor returns the mutex serializing persistence for sessionID, creating
// it on first use. Locks are never evicted; session identifiers are UUIDs and
// the registry grows with active sessions only.
func (s *ConversationService) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionLocks == nil {
		s.sessionLocks = make(map[string]*sync.Mutex)
	}
	l, ok := s.sessionLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.sessionLocks[sessionID] = l
	}
	return l
}
