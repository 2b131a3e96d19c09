// Failure-tolerant TTL store. The cache is strictly an optimization layer:
// any backend failure must degrade to "always recompute" and never surface
// as a user-facing error. The Store therefore swallows every backend error
// at this boundary (gets become misses, sets and deletes become no-ops)
// and logs them at warn level so an unhealthy backend is still visible.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrCacheMiss is returned by Backend implementations when a key is absent.
// The Store treats it as an ordinary miss and does not log it.
var ErrCacheMiss = errors.New("cache: miss")

// Backend is the minimal key-value contract the Store needs. Implementations
// must return ErrCacheMiss for absent keys and are otherwise free to fail;
// the Store isolates callers from those failures.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store wraps a Backend with the swallow-everything failure policy. A Store
// with a nil backend is valid and behaves as a permanently empty cache,
// which is how the service runs when Redis is not configured.
type Store struct {
	backend Backend
	log     zerolog.Logger
}

// NewStore constructs a Store over backend. backend may be nil.
func NewStore(backend Backend, log zerolog.Logger) *Store {
	return &Store{backend: backend, log: log}
}

// Get returns the cached value and true on a hit. Absence and every backend
// failure both report a miss; failures are logged as non-fatal.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if s.backend == nil {
		return "", false
	}
	v, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return "", false
	}
	return v, true
}

// Set stores value under key with the given TTL, best-effort. Backend
// failures are logged and discarded.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if s.backend == nil {
		return
	}
	if err := s.backend.Set(ctx, key, value, ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Delete removes key, best-effort, same failure policy as Set.
func (s *Store) Delete(ctx context.Context, key string) {
	if s.backend == nil {
		return
	}
	if err := s.backend.Del(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}
