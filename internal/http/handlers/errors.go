// Package handlers defines HTTP-layer error codes used across all API
// endpoints. The codes give clients a stable, machine-readable taxonomy that
// supplements the human-readable message; handlers pass the most specific
// matching code to fail() together with the HTTP status.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeInvalid     = "unprocessable"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"
)
