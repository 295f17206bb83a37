// Package services defines the business logic for subscriptions,
// conversation sessions, messages, feedback, analytics, and articles. This
// file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound indicates that the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrArticleNotFound indicates that the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")

	// ErrEmptyTitle is returned when a session-creation request carries a
	// blank title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrEmptyContent is returned when a message-append request carries a
	// blank content body.
	ErrEmptyContent = errors.New("content is empty")

	// ErrInvalidEmail is returned when a subscription email fails format
	// validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrDuplicateEmail is returned when a subscription email is already
	// registered.
	ErrDuplicateEmail = errors.New("email already subscribed")

	// ErrEmptyTopics is returned when a subscription carries no topics.
	ErrEmptyTopics = errors.New("topics must not be empty")

	// ErrInvalidFeedback is returned when a feedback record is missing a
	// required field.
	ErrInvalidFeedback = errors.New("invalid feedback")

	// ErrInvalidEvent is returned when an analytics event is missing a
	// required field.
	ErrInvalidEvent = errors.New("invalid analytics event")
)
