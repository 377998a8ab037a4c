package broker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Broker so that credential requests are throttled per
// (scope, kind) pair — scope is typically the identity's unique id, so one
// user's repeated failed unlocks cannot starve prompts for another user
// sharing the same embedder. This bounds how fast a caller can hammer the
// embedder with password/rescue-code prompts after repeated AEAD failures.
type RateLimited struct {
	next  Broker
	scope string

	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	entries map[string]*limBucket
}

type limBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimited wraps next, allowing limit requests per second with burst
// headroom per (scope, kind) pair. scope identifies the caller this
// decorator throttles independently of every other scope — pass a user's
// unique id, or "" if callers are not otherwise distinguishable. Idle
// buckets are forgotten after ttl.
func NewRateLimited(next Broker, scope string, limit rate.Limit, burst int, ttl time.Duration) *RateLimited {
	return &RateLimited{
		next:    next,
		scope:   scope,
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*limBucket),
	}
}

// Allow reports whether a request keyed by key may proceed right now,
// consuming a token if so. Unlike a sweep over every bucket on each call,
// idle eviction here only inspects the bucket key addresses, so the cost of
// Allow does not grow with the number of distinct scopes a process has ever
// seen.
func (r *RateLimited) Allow(key string) bool {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.entries[key]; ok && now.Sub(b.lastSeen) > r.ttl {
		delete(r.entries, key)
	}
	b, ok := r.entries[key]
	if !ok {
		b = &limBucket{lim: rate.NewLimiter(r.limit, r.burst), lastSeen: now}
		r.entries[key] = b
	}
	b.lastSeen = now
	return b.lim.Allow()
}

// RequestCredential rate-limits by scope and kind before delegating to the
// wrapped broker.
func (r *RateLimited) RequestCredential(ctx context.Context, kind Kind) ([]byte, error) {
	if !r.Allow(r.scope + "\x00" + kind.String()) {
		return nil, ErrCredentialUnavailable
	}
	return r.next.RequestCredential(ctx, kind)
}
