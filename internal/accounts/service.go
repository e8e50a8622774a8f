// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package accounts implements the admin operations over portal principals:
// account management, developer permissions, and secondary token lifecycle.
// The identity package defines the entities; this package mutates them.
package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/sec"
	"github.com/meridianbank/devportal/internal/platform/validate"
	"github.com/meridianbank/devportal/pkg/uuidv7"
)

const (
	// APIKeyByteLength sizes the developer's primary credential (48 hex chars).
	APIKeyByteLength = 24

	// TokenByteLength sizes secondary API tokens (64 hex chars).
	TokenByteLength = 32

	// MinPasswordLength applies to admin-created accounts.
	MinPasswordLength = 12
)

// # Admin Service

// Service implements the admin principal operations.
type Service struct {
	users      identity.UserRepository
	developers identity.DeveloperRepository
	tokens     identity.TokenRepository
	recorder   audit.Recorder
	logger     *slog.Logger
}

// NewService constructs a new accounts [Service].
func NewService(users identity.UserRepository, developers identity.DeveloperRepository, tokens identity.TokenRepository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		users:      users,
		developers: developers,
		tokens:     tokens,
		recorder:   recorder,
		logger:     logger,
	}
}

// # Accounts

// ListUsers returns a page of accounts plus the total count.
func (service *Service) ListUsers(ctx context.Context, limit, offset int) ([]*identity.User, int, error) {
	return service.users.List(ctx, limit, offset)
}

// CreateUserInput holds the fields of an admin-created account.
type CreateUserInput struct {
	Email    string
	FullName string
	Password string
	Role     string
}

/*
CreateUser provisions a new portal account.

Description: Accounts with the developer role also receive a developer
profile carrying a freshly generated primary API key and sandbox-only
permissions. The key is part of the returned profile and shown once in the
admin screen; it is retrievable later only by the account owner.

Parameters:
  - ctx: context.Context
  - input: CreateUserInput

Returns:
  - *identity.User: Created account
  - *identity.Developer: Linked profile, nil for staff roles
  - error: Validation, Conflict (email), or storage errors
*/
func (service *Service) CreateUser(ctx context.Context, input CreateUserInput) (*identity.User, *identity.Developer, error) {

	validator := &validate.Validator{}
	validator.Required("email", input.Email).
		Email("email", input.Email).
		Required("full_name", input.FullName).
		MaxLen("full_name", input.FullName, 120).
		MinLen("password", input.Password, MinPasswordLength)

	role, err := identity.ParseRole(input.Role)
	if err != nil {
		validator.Custom("role", true, "Must be one of: admin, manager, developer, editor")
	}

	if err := validator.Err(); err != nil {
		return nil, nil, err
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &identity.User{
		ID:           uuidv7.New(),
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         role,
		IsActive:     true,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	var developer *identity.Developer
	if role == identity.RoleDeveloper {
		apiKey, err := sec.GenerateSecureToken(APIKeyByteLength)
		if err != nil {
			return nil, nil, err
		}

		developer = &identity.Developer{
			ID:     uuidv7.New(),
			UserID: user.ID,
			Email:  user.Email,
			APIKey: apiKey,
			// New developers start sandbox-only; uat/production are granted
			// explicitly through the permissions screen.
			Permissions: map[identity.Environment]bool{identity.EnvSandbox: true},
		}
		if err := service.developers.Create(ctx, developer); err != nil {
			return nil, nil, err
		}
	}

	if err := service.trail(ctx, audit.ActionCreate, "user", user.ID, string(role)); err != nil {
		return nil, nil, err
	}

	service.logger.InfoContext(ctx, "user_created",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	return user, developer, nil
}

/*
SetUserActive flips an account's activation flag.

Description: Deactivation takes effect on the caller's next request — the
session authenticator re-checks the flag on every resolution and destroys
the session of a deactivated account.

Returns:
  - error: NotFound or storage errors
*/
func (service *Service) SetUserActive(ctx context.Context, id string, active bool) error {

	if err := service.users.SetActive(ctx, id, active); err != nil {
		return err
	}

	details := "deactivated"
	if active {
		details = "activated"
	}
	if err := service.trail(ctx, audit.ActionUpdate, "user", id, details); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "user_activation_changed",
		slog.String("user_id", id),
		slog.Bool("active", active),
	)

	return nil
}

/*
ChangeRole reassigns an account's role.

Returns:
  - *identity.User: Updated account
  - error: Validation, NotFound, or storage errors
*/
func (service *Service) ChangeRole(ctx context.Context, id, roleValue string) (*identity.User, error) {

	role, err := identity.ParseRole(roleValue)
	if err != nil {
		return nil, validate.RequiredError("role", "Must be one of: admin, manager, developer, editor")
	}

	user, err := service.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := service.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionUpdate, "user", id, "role="+string(role)); err != nil {
		return nil, err
	}

	return user, nil
}

// # Developer Permissions

// GetDeveloper returns one developer profile.
func (service *Service) GetDeveloper(ctx context.Context, id string) (*identity.Developer, error) {
	return service.developers.FindByID(ctx, id)
}

/*
UpdatePermissions replaces a developer's per-environment permission map.

Parameters:
  - ctx: context.Context
  - developerID: string
  - grants: map of environment name → allowed

Returns:
  - *identity.Developer: Profile with the new permissions
  - error: Validation (unknown environment), NotFound, or storage errors
*/
func (service *Service) UpdatePermissions(ctx context.Context, developerID string, grants map[string]bool) (*identity.Developer, error) {

	permissions := make(map[identity.Environment]bool, len(grants))
	for name, allowed := range grants {
		env, err := identity.ParseEnvironment(name)
		if err != nil {
			return nil, validate.RequiredError("permissions", fmt.Sprintf("Unknown environment %q", name))
		}
		permissions[env] = allowed
	}

	developer, err := service.developers.FindByID(ctx, developerID)
	if err != nil {
		return nil, err
	}

	if err := service.developers.UpdatePermissions(ctx, developerID, permissions); err != nil {
		return nil, err
	}
	developer.Permissions = permissions

	if err := service.trail(ctx, audit.ActionUpdate, "developer", developerID, "permissions"); err != nil {
		return nil, err
	}

	return developer, nil
}

// # Secondary Tokens

// IssuedToken pairs a stored token row with its plaintext, which exists
// only in this response. The repository keeps the SHA-256 digest.
type IssuedToken struct {
	Token    string             `json:"token"`
	APIToken *identity.APIToken `json:"api_token"`
}

/*
IssueToken mints a secondary API token for a developer.

Parameters:
  - ctx: context.Context
  - developerID: string
  - name: human label shown in the token list

Returns:
  - *IssuedToken: Row plus one-time plaintext
  - error: Validation, NotFound (developer), or storage errors
*/
func (service *Service) IssueToken(ctx context.Context, developerID, name string) (*IssuedToken, error) {

	validator := &validate.Validator{}
	validator.Required("name", name).MaxLen("name", name, 80)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.developers.FindByID(ctx, developerID); err != nil {
		return nil, err
	}

	plaintext, err := sec.GenerateSecureToken(TokenByteLength)
	if err != nil {
		return nil, err
	}

	token := &identity.APIToken{
		ID:          uuidv7.New(),
		DeveloperID: developerID,
		Name:        name,
		TokenHash:   sec.HashToken(plaintext),
		IsActive:    true,
	}

	if err := service.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionCreate, "apitoken", token.ID, name); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "api_token_issued",
		slog.String("token_id", token.ID),
		slog.String("developer_id", developerID),
	)

	return &IssuedToken{Token: plaintext, APIToken: token}, nil
}

// ListTokens returns every token of a developer, active and revoked.
func (service *Service) ListTokens(ctx context.Context, developerID string) ([]*identity.APIToken, error) {
	if _, err := service.developers.FindByID(ctx, developerID); err != nil {
		return nil, err
	}
	return service.tokens.ListByDeveloper(ctx, developerID)
}

/*
RevokeToken marks a token inactive. Irreversible.

Returns:
  - error: NotFound or storage errors
*/
func (service *Service) RevokeToken(ctx context.Context, id string) error {

	if err := service.tokens.Revoke(ctx, id); err != nil {
		return err
	}

	if err := service.trail(ctx, audit.ActionDelete, "apitoken", id, "revoked"); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "api_token_revoked", slog.String("token_id", id))

	return nil
}

// # Internal Helpers

// trail appends an audit entry for a privileged mutation; a failed append
// fails the operation.
func (service *Service) trail(ctx context.Context, action, resource, resourceID, details string) error {
	entry := audit.Entry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
	if caller := ctxutil.GetIdentity(ctx); caller != nil {
		entry.UserID = caller.ID
	}

	if err := service.recorder.Record(ctx, entry); err != nil {
		return fmt.Errorf("accounts_service_audit_failed: %w", err)
	}
	return nil
}
