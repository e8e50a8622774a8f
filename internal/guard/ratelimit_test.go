// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// White-box tests: the limiter's clock is injected directly so the window
// law can be verified without sleeping.
package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
)

// testClock drives a limiter deterministically.
type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time          { return c.current }
func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestLimiter(window time.Duration, max int) (*Limiter, *testClock) {
	clock := &testClock{current: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	limiter := NewLimiter(window, max)
	limiter.now = clock.now
	return limiter, clock
}

/*
TestLimiter_WindowLaw verifies the core quota law: max hits within the
window succeed, the next one is rejected with a positive retry hint, and
the quota frees up once the oldest hit slides out of the window.
*/
func TestLimiter_WindowLaw(t *testing.T) {
	limiter, clock := newTestLimiter(time.Minute, 3)

	// 1. The full quota is admitted
	for i := 0; i < 3; i++ {
		ok, retryAfter := limiter.Allow("user-1")
		assert.True(t, ok)
		assert.Zero(t, retryAfter)
		clock.advance(time.Second)
	}

	// 2. The next hit within the window is rejected with a positive hint
	ok, retryAfter := limiter.Allow("user-1")
	assert.False(t, ok)
	assert.Positive(t, retryAfter)
	assert.LessOrEqual(t, retryAfter, 60)

	// 3. Once the oldest hit leaves the window, the key recovers
	clock.advance(time.Minute)
	ok, retryAfter = limiter.Allow("user-1")
	assert.True(t, ok)
	assert.Zero(t, retryAfter)
}

/*
TestLimiter_KeysAreIndependent verifies one principal exhausting its quota
does not affect another.
*/
func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(time.Minute, 1)

	ok, _ := limiter.Allow("user-1")
	assert.True(t, ok)

	ok, _ = limiter.Allow("user-1")
	assert.False(t, ok)

	ok, _ = limiter.Allow("user-2")
	assert.True(t, ok)
}

/*
TestLimiter_RetryAfterShrinks verifies the retry hint is derived from the
oldest surviving hit, so it shrinks as the window slides.
*/
func TestLimiter_RetryAfterShrinks(t *testing.T) {
	limiter, clock := newTestLimiter(time.Minute, 1)

	limiter.Allow("user-1")

	_, first := limiter.Allow("user-1")
	clock.advance(30 * time.Second)
	_, second := limiter.Allow("user-1")

	assert.Greater(t, first, second)
	assert.Positive(t, second)
}

/*
TestLimiter_Sweep verifies the eviction pass drops keys whose whole window
has expired and keeps the rest.
*/
func TestLimiter_Sweep(t *testing.T) {
	limiter, clock := newTestLimiter(time.Minute, 5)

	limiter.Allow("stale")
	clock.advance(45 * time.Second)
	limiter.Allow("fresh")
	clock.advance(30 * time.Second) // "stale" is now 75s old, "fresh" 30s

	limiter.sweep()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.hits, "stale")
	assert.Contains(t, limiter.hits, "fresh")
}

/*
TestRateLimit_Middleware verifies the interceptor: identity-keyed buckets,
429 with both the JSON retry hint and the Retry-After header on rejection.
*/
func TestRateLimit_Middleware(t *testing.T) {
	limiter, _ := newTestLimiter(time.Minute, 1)

	handler := RateLimit(limiter)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	serve := func(userID string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		if userID != "" {
			caller := &identity.Identity{ID: userID, Role: identity.RoleDeveloper}
			request = request.WithContext(ctxutil.WithIdentity(request.Context(), caller))
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	// 1. First hit passes, second is rejected
	assert.Equal(t, http.StatusOK, serve("user-1").Code)

	rejected := serve("user-1")
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.NotEmpty(t, rejected.Header().Get("Retry-After"))
	assert.Contains(t, rejected.Body.String(), "retry_after")

	// 2. A different principal still has quota
	assert.Equal(t, http.StatusOK, serve("user-2").Code)
}

/*
TestRateLimit_AnonymousKeyedByIP verifies anonymous requests fall back to
the client address.
*/
func TestRateLimit_AnonymousKeyedByIP(t *testing.T) {
	limiter, _ := newTestLimiter(time.Minute, 1)

	handler := RateLimit(limiter)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	serve := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, "/login", nil)
		request.Header.Set("X-Real-IP", ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusOK, serve("203.0.113.7").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve("203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, serve("203.0.113.8").Code)
}
