// Feedback and analytics HTTP handlers.
//
//   - POST /feedback   (rate a model message, 201)
//   - POST /analytics  (log a client usage event, 202)
//
// Both are single independent inserts with no ordering or atomicity
// requirement; analytics is acknowledged with 202 since nothing downstream
// depends on the write being observable.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/up2d8/up2d8-backend/internal/services"
)

// FeedbackRequest is the JSON payload for rating a message.
type FeedbackRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
	Rating    string `json:"rating" binding:"required"`
}

// AnalyticsRequest is the JSON payload for logging a usage event.
type AnalyticsRequest struct {
	UserID    string         `json:"user_id" binding:"required"`
	EventType string         `json:"event_type" binding:"required"`
	Details   map[string]any `json:"details"`
}

// SubmitFeedback handles POST /feedback.
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message_id, user_id, and rating required")
		return
	}

	if _, err := h.fbSvc.Submit(c.Request.Context(), req.MessageID, req.UserID, req.Rating); err != nil {
		if errors.Is(err, services.ErrInvalidFeedback) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid feedback")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusCreated, gin.H{"message": "Feedback received."})
}

// RecordAnalytics handles POST /analytics.
func (h *Handlers) RecordAnalytics(c *gin.Context) {
	var req AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and event_type required")
		return
	}

	if _, err := h.analyticsSvc.Record(c.Request.Context(), req.UserID, req.EventType, req.Details); err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid event")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusAccepted, gin.H{"message": "Event logged."})
}
