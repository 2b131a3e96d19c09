// Package services – CachedAnalytics
//
// This file implements the cache-aside layer over the analytics reads. Every
// read first consults the cache store; on a miss the underlying service
// computes the result, which is serialized as JSON and written back with a
// per-class TTL. Concurrent misses for the same key are collapsed with
// singleflight so a popular chat cannot stampede the database. Results carry
// a Cached flag that is true only when the value was served from the store.
//
// Invalidation is TTL-only: writes do not purge keys, so a window of staleness
// up to the TTL is expected and accepted.
package services

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ghrenier/tg-chatlog/internal/cache"
	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Default TTLs per result class.
const (
	DefaultStatsTTL  = 1200 * time.Second
	DefaultUserTTL   = 600 * time.Second
	DefaultListTTL   = 600 * time.Second
	DefaultSearchTTL = 600 * time.Second
)

// CachedAnalytics wraps StatsService and SearchService with the cache-aside
// policy. A zero TTL field falls back to the class default.
type CachedAnalytics struct {
	Stats  *StatsService
	Search *SearchService
	Store  *cache.Store

	StatsTTL  time.Duration
	UserTTL   time.Duration
	ListTTL   time.Duration
	SearchTTL time.Duration

	group singleflight.Group
}

func ttlOr(ttl, def time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return def
}

// through is the generic cache-aside read. On a hit the cached JSON is
// decoded into a fresh T and flagged via mark(true). On a miss compute runs
// under singleflight, the result is stored, and mark(false) applies.
//
// The singleflight result is shared between every waiting goroutine, so it is
// never mutated: each caller gets a private shallow copy and mark runs on
// that copy.
func through[T any](ctx context.Context, ca *CachedAnalytics, key string, ttl time.Duration,
	compute func(ctx context.Context) (*T, error), mark func(*T, bool)) (*T, error) {

	tr := otel.Tracer("services/CachedAnalytics")
	ctx, span := tr.Start(ctx, "through", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if raw, ok := ca.Store.Get(ctx, key); ok {
		var out T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			mark(&out, true)
			return &out, nil
		}
		// Undecodable entry: treat as a miss and let the write below
		// replace it.
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, _ := ca.group.Do(key, func() (interface{}, error) {
		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(out); err == nil {
			ca.Store.Set(ctx, key, string(raw), ttl)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*T)
	mark(&out, false)
	return &out, nil
}

// ChatStats serves chat-wide statistics through the cache.
func (ca *CachedAnalytics) ChatStats(ctx context.Context, chatID int64, period domain.Period) (*ChatStatsResult, error) {
	key := cache.StatsKey(chatID, period)
	return through(ctx, ca, key, ttlOr(ca.StatsTTL, DefaultStatsTTL),
		func(ctx context.Context) (*ChatStatsResult, error) {
			return ca.Stats.ChatStats(ctx, chatID, period)
		},
		func(r *ChatStatsResult, hit bool) { r.Cached = hit },
	)
}

// UserStats serves per-user statistics through the cache. ErrUserNotFound is
// never cached; only successful results are stored.
func (ca *CachedAnalytics) UserStats(ctx context.Context, chatID, userID int64, period domain.Period) (*UserStatsResult, error) {
	key := cache.UserStatsKey(chatID, userID, period)
	return through(ctx, ca, key, ttlOr(ca.UserTTL, DefaultUserTTL),
		func(ctx context.Context) (*UserStatsResult, error) {
			return ca.Stats.UserStats(ctx, chatID, userID, period)
		},
		func(r *UserStatsResult, hit bool) { r.Cached = hit },
	)
}

// ListUsers serves the ranked sender list through the cache.
func (ca *CachedAnalytics) ListUsers(ctx context.Context, chatID int64) (*UsersListResult, error) {
	key := cache.UsersListKey(chatID)
	return through(ctx, ca, key, ttlOr(ca.ListTTL, DefaultListTTL),
		func(ctx context.Context) (*UsersListResult, error) {
			return ca.Stats.ListUsers(ctx, chatID)
		},
		func(r *UsersListResult, hit bool) { r.Cached = hit },
	)
}

// SearchPage serves one page of search results through the cache. The key is
// derived from the normalized query, so only validated queries reach it;
// ErrInvalidQuery and ErrInvalidPage short-circuit before any cache access.
func (ca *CachedAnalytics) SearchPage(ctx context.Context, chatID int64, query string, page int) (*SearchResult, error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}
	if _, err := search.Classify(query); err != nil {
		return nil, ErrInvalidQuery
	}
	key := cache.SearchKey(chatID, query, page)
	return through(ctx, ca, key, ttlOr(ca.SearchTTL, DefaultSearchTTL),
		func(ctx context.Context) (*SearchResult, error) {
			return ca.Search.Search(ctx, chatID, query, page)
		},
		func(r *SearchResult, hit bool) { r.Cached = hit },
	)
}
