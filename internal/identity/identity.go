// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package identity defines the principals of the developer portal.
//
// # Architecture
//
// Entities in this package represent the "Truth" of the portal's access
// model. They have no dependencies on outer layers (databases, HTTP, or
// third-party libraries), which keeps the authorization rules testable in
// isolation.
package identity

import (
	"fmt"
	"time"
)

// # Roles

// Role represents the authorization level granted to a portal account.
//
// # Usage
//
// Roles are parsed from storage exactly once (at the authentication
// boundary) so that gates downstream compare enum values, never raw strings.
type Role string

const (
	RoleAdmin     Role = "admin"     // Full portal administration.
	RoleManager   Role = "manager"   // Manages catalogue content and developer access.
	RoleDeveloper Role = "developer" // Consumes APIs via sandbox/uat/production.
	RoleEditor    Role = "editor"    // Maintains documentation and catalogue entries.
)

// ParseRole converts a stored role string into a [Role].
//
// # Returns
//   - The matching [Role] constant.
//   - An error if the value is not part of the closed role set.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleEditor:
		return Role(value), nil
	default:
		return "", fmt.Errorf("identity: unknown role %q", value)
	}
}

// # Environments

// Environment names one of the bank's API execution targets.
type Environment string

const (
	EnvSandbox    Environment = "sandbox"    // Simulated responses, open to all developers.
	EnvUAT        Environment = "uat"        // User acceptance testing against staged systems.
	EnvProduction Environment = "production" // Live banking systems.
)

// ParseEnvironment converts a path/query string into an [Environment].
func ParseEnvironment(value string) (Environment, error) {
	switch Environment(value) {
	case EnvSandbox, EnvUAT, EnvProduction:
		return Environment(value), nil
	default:
		return "", fmt.Errorf("identity: unknown environment %q", value)
	}
}

// # Request Identity

// Identity is the caller identity derived per request by the authenticator.
//
// # Lifetime
//
// Identity lives exactly one request. It is attached to the request context
// after a credential resolves to an active principal and is consumed by the
// role/environment gates, the rate limiter, and the handlers.
//
// # Invariant
//
// An Identity is never attached to a request unless the credential was valid
// AND the underlying user (or developer) is active. Downstream gates may
// assume Identity, if present, refers to an active principal.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DeveloperID string `json:"developer_id,omitempty"`
}

// IsSynthetic reports whether this identity was minted by the sandbox
// test-key provider rather than resolved from storage.
func (i Identity) IsSynthetic() bool {
	return i.ID == SandboxUserID
}

// SandboxUserID is the fixed ID of the synthetic sandbox identity issued
// for the reserved development API keys. It exists only in memory — there
// is no corresponding row in any table.
const SandboxUserID = "sandbox_user"

// # Persisted Principals

// User represents a portal account (bank staff or external developer).
//
// # Rules
//   - Email is unique and validated.
//   - PasswordHash is generated via Bcrypt exclusively by the auth service.
//   - IsActive gates every authentication path: an inactive user is treated
//     as unauthenticated even when presenting a valid session.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Developer is the optional 1:1 API-consumer profile linked to a [User].
//
// # Credentials
//
// APIKey is the primary programmatic credential. Secondary credentials are
// issued as [APIToken] rows and can be revoked independently.
type Developer struct {
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	Email        string               `json:"email"`
	APIKey       string               `json:"-"` // Secret bearer string. Never serialized.
	Permissions  map[Environment]bool `json:"permissions"`
	LastActiveAt time.Time            `json:"last_active_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// CanAccess reports whether the developer is permitted to use the given
// environment. Missing map entries are treated as denied.
func (d *Developer) CanAccess(env Environment) bool {
	return d.Permissions[env]
}

// APIToken is a secondary programmatic credential bound to a developer.
//
// # Security Concept
//
// Only the SHA-256 digest of the token is stored. The plaintext is shown to
// the developer exactly once at issuance and cannot be recovered afterwards.
type APIToken struct {
	ID          string    `json:"id"`
	DeveloperID string    `json:"developer_id"`
	Name        string    `json:"name"`
	TokenHash   string    `json:"-"` // SHA-256 digest of the issued token.
	IsActive    bool      `json:"is_active"`
	LastUsedAt  time.Time `json:"last_used_at"`
	CreatedAt   time.Time `json:"created_at"`
}
