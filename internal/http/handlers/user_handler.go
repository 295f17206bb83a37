// User HTTP handlers.
//
// This file exposes REST endpoints for subscriber resources:
//   - POST /users              (subscribe)
//   - PUT  /users/{user_id}    (partial preference/topic update)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/up2d8/up2d8-backend/internal/services"
)

// SubscribeRequest is the JSON payload for creating a subscription.
type SubscribeRequest struct {
	Email  string   `json:"email" binding:"required"`
	Topics []string `json:"topics" binding:"required"`
}

// SubscribeResponse confirms a new subscription.
type SubscribeResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// UpdateUserRequest is the JSON payload for a partial user update. Omitted
// fields keep their stored value; present fields replace the stored field
// wholesale.
type UpdateUserRequest struct {
	Topics      *[]string       `json:"topics,omitempty"`
	Preferences *map[string]any `json:"preferences,omitempty"`
}

// Subscribe handles POST /users. An invalid email is a 422; a duplicate one
// is a 409.
func (h *Handlers) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and topics required")
		return
	}

	u, err := h.userSvc.Subscribe(c.Request.Context(), req.Email, req.Topics)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			fail(c, http.StatusUnprocessableEntity, ErrCodeInvalid, "invalid email address")
		case errors.Is(err, services.ErrEmptyTopics):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topics must not be empty")
		case errors.Is(err, services.ErrDuplicateEmail):
			fail(c, http.StatusConflict, ErrCodeConflict, "email already subscribed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, SubscribeResponse{
		Message: "Subscription confirmed.",
		UserID:  u.ID,
	})
}

// UpdateUser handles PUT /users/{user_id}. User identifiers are opaque; one
// that matches no stored user is a 404 from the lookup.
func (h *Handlers) UpdateUser(c *gin.Context) {
	userID := c.Param("user_id")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Topics == nil && req.Preferences == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}

	_, err := h.userSvc.Update(c.Request.Context(), userID, services.UserUpdate{
		Topics:      req.Topics,
		Preferences: req.Preferences,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case errors.Is(err, services.ErrEmptyTopics):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topics must not be empty")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, gin.H{"message": "Preferences updated."})
}
