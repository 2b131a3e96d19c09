// Package cache provides the read-side caching layer: deterministic cache
// key derivation and a failure-tolerant TTL store over a key-value backend.
//
// Keys are pure functions of the request scope. Two requests that are
// semantically identical must always derive the same key, and keys are
// bounded in length so arbitrary user queries cannot produce unbounded
// backend keys.
package cache

import (
	"fmt"
	"unicode"

	"github.com/ghrenier/tg-chatlog/internal/domain"
)

// maxQueryKeyRunes caps the normalized-query segment of a search key.
// Queries that differ only beyond this boundary (or only in replaced runes)
// may collide; that is an accepted trade-off, not a bug. A collision merely
// serves one stale-but-valid page for the other query until TTL expiry.
const maxQueryKeyRunes = 50

// StatsKey derives the cache key for chat-wide statistics.
func StatsKey(chatID int64, period domain.Period) string {
	return fmt.Sprintf("stats:%d:%s", chatID, period)
}

// UserStatsKey derives the cache key for a single user's statistics within
// a chat scope.
func UserStatsKey(chatID, userID int64, period domain.Period) string {
	return fmt.Sprintf("user_stats:%d:%d:%s", chatID, userID, period)
}

// UsersListKey derives the cache key for the ranked user list of a chat.
func UsersListKey(chatID int64) string {
	return fmt.Sprintf("users_list:%d", chatID)
}

// SearchKey derives the cache key for one page of search results. The raw
// query is normalized first so the key stays bounded and backend-safe.
func SearchKey(chatID int64, query string, page int) string {
	return fmt.Sprintf("search:%d:%s:%d", chatID, normalizeQuery(query), page)
}

// keyRune reports whether a rune may appear verbatim in a key. ASCII
// alphanumerics always qualify; Cyrillic letters are admitted as the
// extended alphabet because that is what the logged chats actually speak.
// Everything else is replaced.
func keyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.Is(unicode.Cyrillic, r):
		return true
	}
	return false
}

// normalizeQuery maps a raw search query onto its key segment: every rune
// outside the key alphabet becomes '_', and the result is truncated to
// maxQueryKeyRunes runes. Both steps are deterministic, so identical queries
// always hash to identical keys.
func normalizeQuery(q string) string {
	out := make([]rune, 0, maxQueryKeyRunes)
	for _, r := range q {
		if !keyRune(r) {
			r = '_'
		}
		out = append(out, r)
		if len(out) == maxQueryKeyRunes {
			break
		}
	}
	return string(out)
}
