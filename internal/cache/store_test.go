package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeBackend is an in-memory Backend with an injectable clock so TTL expiry
// can be simulated without sleeping.
type fakeBackend struct {
	now     time.Time
	entries map[string]fakeEntry

	failGet bool
	failSet bool
	failDel bool
	sets    int
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		now:     time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		entries: map[string]fakeEntry{},
	}
}

func (b *fakeBackend) advance(d time.Duration) { b.now = b.now.Add(d) }

func (b *fakeBackend) Get(ctx context.Context, key string) (string, error) {
	if b.failGet {
		return "", errors.New("backend down")
	}
	e, ok := b.entries[key]
	if !ok || b.now.After(e.expiresAt) {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (b *fakeBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if b.failSet {
		return errors.New("backend down")
	}
	b.sets++
	b.entries[key] = fakeEntry{value: value, expiresAt: b.now.Add(ttl)}
	return nil
}

func (b *fakeBackend) Del(ctx context.Context, key string) error {
	if b.failDel {
		return errors.New("backend down")
	}
	delete(b.entries, key)
	return nil
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	b := newFakeBackend()
	s := NewStore(b, zerolog.Nop())
	ctx := context.Background()

	s.Set(ctx, "k", "v", 10*time.Second)
	got, ok := s.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%q, %v); want (v, true)", got, ok)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	b := newFakeBackend()
	s := NewStore(b, zerolog.Nop())
	ctx := context.Background()

	s.Set(ctx, "k", "v", 1*time.Second)
	b.advance(2 * time.Second)

	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("entry past its TTL must report as a miss")
	}
}

func TestStore_BackendFailuresAreSwallowed(t *testing.T) {
	b := newFakeBackend()
	s := NewStore(b, zerolog.Nop())
	ctx := context.Background()

	b.failGet = true
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("failed get must look like a miss")
	}

	// Set and Delete never panic or propagate.
	b.failSet, b.failDel = true, true
	s.Set(ctx, "k", "v", time.Second)
	s.Delete(ctx, "k")
}

func TestStore_NilBackendIsAlwaysMiss(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Second)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("nil backend should behave as an empty cache")
	}
	s.Delete(ctx, "k")
}

func TestStore_DeleteRemovesKey(t *testing.T) {
	b := newFakeBackend()
	s := NewStore(b, zerolog.Nop())
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Minute)
	s.Delete(ctx, "k")
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("deleted key still present")
	}
}
