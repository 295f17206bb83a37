package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/repo"
)

func TestFeedbackSubmit(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db)
	ctx := context.Background()
	userID, sessionID := seedSession(t, db)

	msg, err := repo.CreateMessage(ctx, db, sessionID, domain.RoleModel, "a reply", []domain.Source{})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	fb, err := svc.Submit(ctx, msg.ID, userID, "up")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if fb.MessageID != msg.ID || fb.Rating != "up" {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}

func TestFeedbackSubmit_Invalid(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db)
	ctx := context.Background()
	userID, sessionID := seedSession(t, db)

	msg, err := repo.CreateMessage(ctx, db, sessionID, domain.RoleModel, "a reply", nil)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	cases := []struct {
		name                      string
		messageID, userID, rating string
	}{
		{"blank message", "", userID, "up"},
		{"blank user", msg.ID, " ", "up"},
		{"blank rating", msg.ID, userID, ""},
		{"unknown message", uuid.NewString(), userID, "up"},
	}
	for _, tc := range cases {
		if _, err := svc.Submit(ctx, tc.messageID, tc.userID, tc.rating); !errors.Is(err, ErrInvalidFeedback) {
			t.Errorf("%s: expected ErrInvalidFeedback, got %v", tc.name, err)
		}
	}
}

func TestAnalyticsRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)
	ctx := context.Background()
	userID, _ := seedSession(t, db)

	ev, err := svc.Record(ctx, userID, "article_opened", map[string]any{"article_id": "abc"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if ev.EventType != "article_opened" || ev.Details["article_id"] != "abc" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// Details may be omitted entirely.
	if _, err := svc.Record(ctx, userID, "app_opened", nil); err != nil {
		t.Fatalf("Record without details: %v", err)
	}

	if _, err := svc.Record(ctx, "", "app_opened", nil); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := svc.Record(ctx, userID, "  ", nil); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestArticles(t *testing.T) {
	db := newTestDB(t)
	svc := NewArticleService(db)
	ctx := context.Background()

	old := &domain.Article{
		ID:          uuid.NewString(),
		Title:       "Older",
		Summary:     "old news",
		URL:         "https://example.com/old",
		PublishedAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	fresh := &domain.Article{
		ID:          uuid.NewString(),
		Title:       "Fresh",
		Summary:     "new news",
		URL:         "https://example.com/new",
		PublishedAt: time.Now().UTC(),
	}
	for _, a := range []*domain.Article{old, fresh} {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("seed article: %v", err)
		}
	}

	list, err := svc.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Fresh" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	capped, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(capped) != 1 || capped[0].Title != "Fresh" {
		t.Fatalf("expected capped newest-first list, got %+v", capped)
	}

	got, err := svc.Get(ctx, old.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Older" {
		t.Fatalf("unexpected article: %+v", got)
	}

	if _, err := svc.Get(ctx, uuid.NewString()); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}
