// Session HTTP handlers.
//
// This file exposes REST endpoints for session resources:
//   - POST /sessions                     (create)
//   - GET  /users/{user_id}/sessions     (list a user's sessions)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/up2d8/up2d8-backend/internal/domain"
	"github.com/up2d8/up2d8-backend/internal/services"
)

// CreateSessionRequest is the JSON payload for starting a session.
type CreateSessionRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Title  string `json:"title" binding:"required,min=1,max=255"`
}

// CreateSessionResponse returns the identifier of a newly created session.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// ListSessionsResponse wraps a user's sessions.
type ListSessionsResponse struct {
	Sessions []domain.Session `json:"sessions"`
}

// CreateSession handles POST /sessions. An unknown owning user is a 404.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and title required")
		return
	}

	sess, err := h.convSvc.CreateSession(c.Request.Context(), req.UserID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case errors.Is(err, services.ErrEmptyTitle):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, CreateSessionResponse{SessionID: sess.ID})
}

// ListSessions handles GET /users/{user_id}/sessions. User identifiers are
// opaque; one that matches no stored user is a 404 from the lookup.
func (h *Handlers) ListSessions(c *gin.Context) {
	userID := c.Param("user_id")

	sessions, err := h.convSvc.ListSessions(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}

	ok(c, http.StatusOK, ListSessionsResponse{Sessions: sessions})
}
