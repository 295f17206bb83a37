package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/llm"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

// newTestDB opens a throwaway in-memory database and migrates the schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// stubGenerator returns canned replies or errors and records call history.
type stubGenerator struct {
	mu        sync.Mutex
	calls     int
	histories [][]domain.Message
	reply     llm.Reply
	err       error
	fn        func(history []domain.Message) (llm.Reply, error)
}

func (g *stubGenerator) Generate(_ context.Context, history []domain.Message) (llm.Reply, error) {
	g.mu.Lock()
	g.calls++
	g.histories = append(g.histories, history)
	fn := g.fn
	g.mu.Unlock()
	if fn != nil {
		return fn(history)
	}
	return g.reply, g.err
}

func seedSession(t *testing.T, db *gorm.DB) (userID, sessionID string) {
	t.Helper()
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, db, fmt.Sprintf("%s@test.com", uuid.NewString()), []string{"ai"}, nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	sess, err := repo.CreateSession(ctx, db, u.ID, "Weekly catch-up")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return u.ID, sess.ID
}

func TestCreateSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db, &stubGenerator{})
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, db, "s@test.com", []string{"ai"}, nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	sess, err := svc.CreateSession(ctx, u.ID, "  AI news  ")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Title != "AI news" || sess.UserID != u.ID {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := svc.CreateSession(ctx, u.ID, "   "); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, uuid.NewString(), "t"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAppend_Success(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{reply: llm.Reply{
		Text: "Here is what changed.",
		Sources: []domain.Source{
			{URI: "https://example.com/news", Title: "News"},
		},
	}}
	svc := NewConversationService(db, gen)
	ctx := context.Background()
	_, sessionID := seedSession(t, db)

	pair, err := svc.Append(ctx, sessionID, "What's new in AI?")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if pair.GenerationFailed {
		t.Fatal("unexpected generation failure")
	}
	if pair.UserMessage.Role != domain.RoleUser || pair.UserMessage.Content != "What's new in AI?" {
		t.Fatalf("user message: %+v", pair.UserMessage)
	}
	if pair.ModelMessage.Role != domain.RoleModel || pair.ModelMessage.Content != "Here is what changed." {
		t.Fatalf("model message: %+v", pair.ModelMessage)
	}
	if len(pair.ModelMessage.Sources) != 1 || pair.ModelMessage.Sources[0].URI != "https://example.com/news" {
		t.Fatalf("sources not persisted: %+v", pair.ModelMessage.Sources)
	}
	if !pair.ModelMessage.CreatedAt.After(pair.UserMessage.CreatedAt) {
		t.Fatal("model turn must be strictly after the user turn")
	}

	// The generator saw a history ending with the just-persisted user turn.
	if gen.calls != 1 || len(gen.histories[0]) != 1 || gen.histories[0][0].Content != "What's new in AI?" {
		t.Fatalf("generator history: %+v", gen.histories)
	}

	// Exactly two messages stored, in order.
	log, err := svc.ListMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(log) != 2 || log[0].Role != domain.RoleUser || log[1].Role != domain.RoleModel {
		t.Fatalf("unexpected log: %+v", log)
	}
}

func TestAppend_GenerationFailure_StoresNotice(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{err: fmt.Errorf("%w: provider down", llm.ErrGenerationUnavailable)}
	svc := NewConversationService(db, gen)
	ctx := context.Background()
	_, sessionID := seedSession(t, db)

	pair, err := svc.Append(ctx, sessionID, "anything new?")
	if err != nil {
		t.Fatalf("Append should not fail on generation errors: %v", err)
	}
	if !pair.GenerationFailed {
		t.Fatal("expected GenerationFailed")
	}
	if pair.ModelMessage.Content != GenerationFailureNotice {
		t.Fatalf("model content = %q", pair.ModelMessage.Content)
	}
	if len(pair.ModelMessage.Sources) != 0 {
		t.Fatalf("failure notice must carry no sources: %+v", pair.ModelMessage.Sources)
	}

	// The log still gained exactly two messages.
	log, err := svc.ListMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(log))
	}
	if log[1].Content != GenerationFailureNotice {
		t.Fatalf("stored model turn = %q", log[1].Content)
	}
}

func TestAppend_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db, &stubGenerator{})
	ctx := context.Background()
	_, sessionID := seedSession(t, db)

	if _, err := svc.Append(ctx, sessionID, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := svc.Append(ctx, uuid.NewString(), "hello"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppend_ConcurrentSameSession(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{fn: func(history []domain.Message) (llm.Reply, error) {
		return llm.Reply{Text: fmt.Sprintf("reply %d", len(history))}, nil
	}}
	svc := NewConversationService(db, gen)
	ctx := context.Background()
	_, sessionID := seedSession(t, db)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Append(ctx, sessionID, fmt.Sprintf("question %d", i)); err != nil {
				t.Errorf("Append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	log, err := svc.ListMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(log) != 2*n {
		t.Fatalf("expected %d messages, got %d", 2*n, len(log))
	}
	for i := 1; i < len(log); i++ {
		if !log[i].CreatedAt.After(log[i-1].CreatedAt) {
			t.Fatalf("timestamps not strictly increasing at index %d", i)
		}
	}
}

func TestListMessages_EmptyAndMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db, &stubGenerator{})
	ctx := context.Background()
	_, sessionID := seedSession(t, db)

	log, err := svc.ListMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(log) != 0 {
		t.Fatalf("expected empty log, got %d", len(log))
	}

	if _, err := svc.ListMessages(ctx, uuid.NewString()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessions_EmptyAndMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db, &stubGenerator{})
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, db, "empty@test.com", []string{"ai"}, nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	sessions, err := svc.ListSessions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}

	if _, err := svc.ListSessions(ctx, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
