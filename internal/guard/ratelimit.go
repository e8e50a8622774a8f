// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package guard

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/middleware"
	"github.com/meridianbank/devportal/internal/platform/respond"
)

// # Sliding-Window Rate Limiter

// Limiter enforces "at most max requests per key within window" using exact
// sliding windows: it keeps the timestamps of the last max hits per key and
// prunes those older than the window on every check.
//
// # Why not the token bucket already in the middleware stack?
//
// The global throttle is a coarse per-IP pre-filter with burst semantics.
// Route quotas need the exact window law — max requests succeed, the next
// one fails with a retry hint derived from the oldest surviving hit — which
// a token bucket cannot express.
//
// # Memory
//
// Worst case one timestamp slice per active key, max entries each. A sweep
// goroutine evicts keys whose entire window has expired so one-off callers
// do not accumulate forever.
type Limiter struct {
	window time.Duration
	max    int

	mu   sync.Mutex
	hits map[string][]time.Time

	// now is swappable so tests can drive the clock instead of sleeping.
	now func() time.Time
}

// NewLimiter constructs a limiter allowing max hits per key per window.
func NewLimiter(window time.Duration, max int) *Limiter {
	return &Limiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a hit for key if the quota permits it.
//
// # Returns
//   - ok: whether the hit was admitted.
//   - retryAfter: when rejected, the whole seconds until the oldest hit in
//     the window expires (at least 1). Zero when admitted.
func (l *Limiter) Allow(key string) (ok bool, retryAfter int) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := pruneBefore(l.hits[key], cutoff)

	if len(window) >= l.max {
		l.hits[key] = window

		// The quota frees up when the oldest hit slides out of the window.
		wait := window[0].Add(l.window).Sub(now)
		seconds := int(wait.Seconds())
		if wait > time.Duration(seconds)*time.Second || seconds < 1 {
			seconds++ // Round up; never advertise a zero wait.
		}
		return false, seconds
	}

	l.hits[key] = append(window, now)
	return true, 0
}

// StartSweeping launches the eviction goroutine. It stops when ctx is
// cancelled. Sweeping is an optimization only — Allow prunes its own key on
// every call — so running without it is functionally correct.
func (l *Limiter) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// sweep drops keys whose every recorded hit has left the window.
func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, window := range l.hits {
		if pruned := pruneBefore(window, cutoff); len(pruned) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = pruned
		}
	}
}

// pruneBefore removes timestamps at or before cutoff. Timestamps are
// appended in order, so the survivors are a suffix.
func pruneBefore(window []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(window) && !window[idx].After(cutoff) {
		idx++
	}
	return window[idx:]
}

// # Middleware

// RateLimit applies a [Limiter] as an interceptor.
//
// # Keying
//
// Authenticated requests are keyed by identity ID, so one principal cannot
// consume another's quota from a second device. Anonymous requests (the
// login route, mounted before any authenticator) fall back to the client IP,
// and finally to the literal "unknown" when no address is extractable —
// such requests then share one global bucket, which fails safe.
func RateLimit(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := limitKey(request)

			if ok, retryAfter := limiter.Allow(key); !ok {
				respond.Error(writer, request, apperr.RateLimited(retryAfter))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// limitKey derives the quota bucket for a request: identity, then IP,
// then "unknown".
func limitKey(request *http.Request) string {
	if caller := ctxutil.GetIdentity(request.Context()); caller != nil {
		return caller.ID
	}
	if ip := middleware.RealIP(request); ip != "" {
		return ip
	}
	return "unknown"
}
