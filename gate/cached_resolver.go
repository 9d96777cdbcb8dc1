package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver wraps a ProfileResolver with TTL-based caching so the
// database is not hit on every authorization check.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[U]cacheEntry
}

type cacheEntry struct {
	profile   Profile
	expiresAt time.Time
}

// NewCachedResolver wraps inner with a cache. ttl is how long a resolved
// profile stays valid before being re-fetched.
func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[U]cacheEntry),
	}
}

// Resolve returns the cached profile when fresh, otherwise delegates to the
// inner resolver and stores the result. A nil profile is cached too: unknown
// users should not trigger a lookup per request.
func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	r.mu.RLock()
	e, ok := r.entries[user]
	r.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.profile, nil
	}

	profile, err := r.inner.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[user] = cacheEntry{profile: profile, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return profile, nil
}

// Invalidate removes a user from the cache. Call it when the user's role or
// active flag changes.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	delete(r.entries, user)
	r.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	r.entries = make(map[U]cacheEntry)
	r.mu.Unlock()
}
