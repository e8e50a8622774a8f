// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package identity

import (
	"context"
)

// UserRepository defines the data access contract for portal accounts.
//
// # Review Process
//
// This interface is placed in a separate file from identity.go so entity
// changes and storage-contract changes can be reviewed independently.
//
// # Implementations
//
// The canonical implementation is PostgreSQL; tests use in-memory fakes.
type UserRepository interface {
	// FindByID returns the account with the given ID.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	//
	// Returns [apperr.NotFound] if no user is registered with this email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// List returns a page of accounts ordered by creation time, plus the
	// total count for pagination metadata.
	List(ctx context.Context, limit, offset int) ([]*User, int, error)

	// Create persists a brand-new portal account.
	//
	// Returns a wrapped error if the email unique constraint fails.
	Create(ctx context.Context, user *User) error

	// Update persists changes to mutable fields (FullName, Role).
	// Passwords must be updated via [UpdatePassword]; activation state via
	// [SetActive].
	Update(ctx context.Context, user *User) error

	// SetActive flips the account's activation flag. Deactivation takes
	// effect on the next request: the authenticator re-checks IsActive on
	// every session resolution.
	SetActive(ctx context.Context, id string, active bool) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error
}

// DeveloperRepository defines the data access contract for developer profiles.
type DeveloperRepository interface {
	// FindByID returns the developer profile with the given ID.
	//
	// Returns [apperr.NotFound] if the profile does not exist.
	FindByID(ctx context.Context, id string) (*Developer, error)

	// FindByUserID returns the developer profile linked to a user account.
	//
	// Returns [apperr.NotFound] if the user has no developer profile — a
	// normal condition for staff accounts.
	FindByUserID(ctx context.Context, userID string) (*Developer, error)

	// FindByAPIKey returns the developer whose primary key matches exactly.
	//
	// Returns [apperr.NotFound] for unknown keys.
	FindByAPIKey(ctx context.Context, apiKey string) (*Developer, error)

	// Create persists a new developer profile.
	Create(ctx context.Context, developer *Developer) error

	// UpdatePermissions replaces the per-environment permission map.
	UpdatePermissions(ctx context.Context, id string, permissions map[Environment]bool) error

	// TouchLastActive bumps the developer's LastActiveAt to now.
	// Called on every successful primary-key authentication.
	TouchLastActive(ctx context.Context, id string) error
}

// TokenRepository defines the contract for secondary API tokens.
//
// # Domain Ownership
//
// Tokens are owned by the identity domain despite being consumed mainly by
// the guard's API-key authenticator: issuance and revocation are admin
// operations on the developer profile.
type TokenRepository interface {
	// FindActiveByHash returns the non-revoked token whose digest matches.
	//
	// Returns [apperr.NotFound] for unknown hashes AND for revoked tokens —
	// a revoked credential must be indistinguishable from an invalid one.
	FindActiveByHash(ctx context.Context, tokenHash string) (*APIToken, error)

	// ListByDeveloper returns all tokens (active and revoked) for a developer.
	ListByDeveloper(ctx context.Context, developerID string) ([]*APIToken, error)

	// Create persists a newly issued token. Only the hash is stored.
	Create(ctx context.Context, token *APIToken) error

	// Revoke marks a token inactive. Irreversible by design — a compromised
	// credential is replaced, never reinstated.
	Revoke(ctx context.Context, id string) error

	// TouchLastUsed bumps the token's LastUsedAt to now.
	TouchLastUsed(ctx context.Context, id string) error
}
