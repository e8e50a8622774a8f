// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/sec"
)

// RedisSessionRepository implements [SessionRepository] using Redis.
//
// # Key Layout
//
// Sessions live under "portal:session:<sha256(token)>" with the user ID as
// the value. The plaintext token never reaches Redis: a leaked keyspace dump
// yields digests that cannot be replayed as cookies.
//
// Expiry is delegated entirely to Redis key TTLs — there is no reaper job
// and no expiry bookkeeping in PostgreSQL.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed [SessionRepository].
func NewSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

/*
Create binds a session token to a user ID.

Parameters:
  - ctx: context.Context
  - token: string (plaintext, hashed before storage)
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Create(ctx context.Context, token, userID string, ttl time.Duration) error {

	// Key by digest, never by plaintext
	key := sessionKey(token)

	// Set the session with TTL
	if err := repository.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_create_failed: %w", err)
	}

	return nil
}

/*
Resolve retrieves the user ID for a session token.

Description: Returns apperr.NotFound if the session is absent or expired —
the two cases are indistinguishable once the TTL has fired.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - string: User ID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisSessionRepository) Resolve(ctx context.Context, token string) (string, error) {

	userID, err := repository.client.Get(ctx, sessionKey(token)).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Session")
		}
		return "", fmt.Errorf("redis_session_resolve_failed: %w", err)
	}

	return userID, nil
}

/*
Destroy removes a session.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - error: Deletion failures (an absent key is not an error)
*/
func (repository *RedisSessionRepository) Destroy(ctx context.Context, token string) error {

	if err := repository.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("redis_session_destroy_failed: %w", err)
	}

	return nil
}

// sessionKey derives the Redis key for a plaintext session token.
func sessionKey(token string) string {
	return constants.RedisPrefixSession + sec.HashToken(token)
}
