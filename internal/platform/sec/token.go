// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package sec provides cryptographic primitives for credential handling.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, opaque
// token generation and digesting) from the domain logic. Session tokens and
// secondary API tokens are opaque random strings; only their SHA-256 digest
// is ever persisted or used as a lookup key.
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a hex-encoded random token of byteLength
// random bytes (so the string is 2*byteLength characters long).
func GenerateSecureToken(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token.
//
// # Why SHA-256, not bcrypt?
//
// Tokens are high-entropy random strings, so brute-force resistance comes
// from the token itself. A fast digest lets the session and API-token
// repositories do exact-match lookups by hash.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
