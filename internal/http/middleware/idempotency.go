// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the message ingestion
// endpoint. It validates an Idempotency-Key request header, optionally asks a
// lookup function whether the (chat, key) pair already completed, and stashes
// the result in the context so the handler can replay the recorded response
// and the rate limiter can wave the request through.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghrenier/tg-chatlog/internal/utils"
)

// HeaderIdempotencyKey is the request header clients use to deduplicate
// retried message submissions.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context. The second value reports presence. Handlers should use this
// instead of reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request duplicates a previously completed
// operation for the same chat and key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs to the lookup, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil selects a conservative
	// token pattern: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a completed, still-valid record exists
// for (chatID, key) at the given time. Lookup failures should return
// (false, err) and never block normal processing.
type IdempotencyLookup func(ctx context.Context, chatID int64, key string, now time.Time) (bool, error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes the key in the context, and marks replays. The chat scope comes
// from the :id route parameter of the ingestion endpoint. Requests without
// the header pass through untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if chatID, ok := utils.ParseInt64(c.Param("id")); ok {
				if exists, _ := lookup(c.Request.Context(), chatID, key, time.Now().UTC()); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
