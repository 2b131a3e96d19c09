// Package services implements the business logic for message logging, chat
// analytics, search, and behavioral summaries. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a request to log a message carries
	// no text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrInvalidQuery is returned when a search query is empty or
	// whitespace-only.
	ErrInvalidQuery = errors.New("search query is empty")

	// ErrInvalidPage is returned when a requested search page is negative.
	ErrInvalidPage = errors.New("page must not be negative")

	// ErrUserNotFound indicates that the requested user has never been seen
	// in the chat.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoMessages indicates that the requested scope contains no messages
	// to aggregate or summarize.
	ErrNoMessages = errors.New("no messages in scope")

	// ErrSummaryUnavailable is returned when the language-model backend is
	// not configured or did not produce a usable completion.
	ErrSummaryUnavailable = errors.New("summary backend unavailable")
)
