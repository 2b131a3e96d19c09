// Package handlers defines HTTP-layer error codes used across all API
// endpoints. The codes give clients a stable, machine-readable taxonomy that
// supplements human-readable messages; handlers pick the most specific code
// and pass it to fail() with the matching status.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeInternal    = "internal_error"
	ErrCodeUnavailable = "unavailable"

	// Domain-specific:
	ErrCodeEmptyMessage     = "empty_message"
	ErrCodeInvalidQuery     = "invalid_query"
	ErrCodeNoMessages       = "no_messages"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
