// Message HTTP handlers.
//
// This file exposes REST endpoints for session messages:
//   - POST /sessions/{session_id}/messages  (append a user turn, get the
//     model reply; both records are returned)
//   - GET  /sessions/{session_id}/messages  (ordered session log)
//
// Idempotency: if the client supplies an Idempotency-Key header and a
// previous successful append exists for (session, key), the handler returns
// the recorded message pair and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/http/middleware"
	"github.com/up2d8/up2d8-backend/internal/repo"
	"github.com/up2d8/up2d8-backend/internal/services"
)

// AppendMessageRequest is the JSON payload for appending a user turn.
type AppendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

// AppendMessageResponse returns the persisted user/model pair. Every
// successful append returns exactly one pair; generation failures surface as
// GenerationFailed with the fixed notice in the model turn.
type AppendMessageResponse struct {
	UserMessage      *domain.Message `json:"user_message"`
	ModelMessage     *domain.Message `json:"model_message"`
	GenerationFailed bool            `json:"generation_failed,omitempty"`
}

// ListMessagesResponse wraps the ordered session log.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text: CRLF/CR to LF, 3+ LF runs collapsed
// to two, surrounding whitespace trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// AppendMessage handles POST /sessions/{session_id}/messages. Session
// identifiers are opaque; one that matches no stored session (malformed ones
// included) is a 404 from the lookup.
func (h *Handlers) AppendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("session_id")

	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Idempotency replay path.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, sessionID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			userMsg, uErr := repo.GetMessage(ctx, h.db, rec.UserMessageID)
			modelMsg, mErr := repo.GetMessage(ctx, h.db, rec.ModelMessageID)
			if uErr == nil && mErr == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, AppendMessageResponse{
					UserMessage:      userMsg,
					ModelMessage:     modelMsg,
					GenerationFailed: rec.GenerationFailed,
				})
				return
			}
		}
	}

	pair, err := h.convSvc.Append(ctx, sessionID, content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case errors.Is(err, services.ErrEmptyContent):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency store path, best effort.
	if idemKey != "" && h.db != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, sessionID, idemKey,
			pair.UserMessage.ID, pair.ModelMessage.ID, pair.GenerationFailed, h.idemTTL)
	}

	ok(c, http.StatusOK, AppendMessageResponse{
		UserMessage:      pair.UserMessage,
		ModelMessage:     pair.ModelMessage,
		GenerationFailed: pair.GenerationFailed,
	})
}

// ListMessages handles GET /sessions/{session_id}/messages.
func (h *Handlers) ListMessages(c *gin.Context) {
	sessionID := c.Param("session_id")

	messages, err := h.convSvc.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	ok(c, http.StatusOK, ListMessagesResponse{Messages: messages})
}
