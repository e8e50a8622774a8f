// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package auth

import (
	"context"
	"time"
)

// SessionRepository defines the storage contract for portal sessions.
//
// # Implementations
//
// The canonical implementation is Redis ([RedisSessionRepository]) so that
// sessions expire server-side via key TTLs. Tests use in-memory fakes.
//
// The Resolve/Destroy subset doubles as the guard's session contract, so the
// same repository instance serves both the login flow and the authenticator.
type SessionRepository interface {
	// Create binds an opaque session token to a user ID for the given TTL.
	Create(ctx context.Context, token, userID string, ttl time.Duration) error

	// Resolve returns the user ID bound to the session token.
	// Returns [apperr.NotFound] if the session is absent or expired.
	Resolve(ctx context.Context, token string) (string, error)

	// Destroy removes the session. Destroying an absent session is not an error.
	Destroy(ctx context.Context, token string) error
}
