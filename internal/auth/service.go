// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package auth implements the session lifecycle of the developer portal.

It handles credential verification, opaque session issuance into Redis, and
the authenticated self-service endpoints (profile, logout).

Architecture:

  - Service: Orchestrates the login/logout business logic.
  - Repository: Redis-backed session storage keyed by token digest.
  - Security: Bcrypt password verification; high-entropy opaque tokens.

Sessions are opaque by design — there is no signed-token surface. The cookie
value is meaningless without the Redis entry, so a single DEL is a complete,
immediate revocation.
*/
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/sec"
)

// SessionTokenLength is the number of random bytes in a session token
// (the cookie value is twice this, hex-encoded).
const SessionTokenLength = 32

// Service implements the portal authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to password
// verification or session issuance must be reviewed by the security team.
type Service struct {
	userRepository      identity.UserRepository
	developerRepository identity.DeveloperRepository
	sessionRepository   SessionRepository
	recorder            audit.Recorder
	sessionTTL          time.Duration
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo identity.UserRepository,
	developerRepo identity.DeveloperRepository,
	sessionRepo SessionRepository,
	recorder audit.Recorder,
	sessionTTL time.Duration,
) *Service {
	return &Service{
		userRepository:      userRepo,
		developerRepository: developerRepo,
		sessionRepository:   sessionRepo,
		recorder:            recorder,
		sessionTTL:          sessionTTL,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// Session represents a successfully established portal session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *identity.User
}

/*
Login validates user credentials and establishes a session.

Description: Verifies identity with constant-time password comparison,
enforces account activation, and issues an opaque session token into Redis.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *Session: Transport-ready session (token for the cookie, user profile)
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {

	// Look up the account. Generic message to prevent enumeration.
	user, err := service.userRepository.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash via bcrypt's constant-time comparison
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Deactivated accounts hold valid hashes but may not log in
	if !user.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}

	// Issue the opaque session token
	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	if err := service.sessionRepository.Create(ctx, token, user.ID, service.sessionTTL); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	// Trail the successful login. Failed attempts are deliberately not
	// audited — the login rate limiter is the brute-force control.
	service.trail(ctx, audit.Entry{
		UserID:    user.ID,
		Action:    audit.ActionLogin,
		Resource:  "session",
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(service.sessionTTL),
		User:      user,
	}, nil
}

/*
Logout destroys the caller's session.

Description: Idempotent — logging out an already-expired session succeeds.

Parameters:
  - ctx: context.Context
  - token: string (the session cookie value)
  - userID: string (for the audit trail; empty when unresolvable)

Returns:
  - err: Destruction failures
*/
func (service *Service) Logout(ctx context.Context, token, userID string) error {

	if err := service.sessionRepository.Destroy(ctx, token); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.trail(ctx, audit.Entry{
		UserID:   userID,
		Action:   audit.ActionLogout,
		Resource: "session",
	})

	return nil
}

// # Self-Service Profile

// Profile bundles the account with its optional developer profile for the
// authenticated "who am I" endpoint.
type Profile struct {
	User      *identity.User      `json:"user"`
	Developer *identity.Developer `json:"developer,omitempty"`
}

/*
Profile returns the caller's account and, when present, developer profile.

Parameters:
  - ctx: context.Context
  - userID: string

Returns:
  - *Profile: Account plus optional developer profile
  - err: NotFound or storage failures
*/
func (service *Service) Profile(ctx context.Context, userID string) (*Profile, error) {

	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}

	// Staff accounts have no developer profile; that is not an error.
	developer, err := service.developerRepository.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		profile.Developer = developer
	case isNotFound(err):
		// No profile linked.
	default:
		return nil, fmt.Errorf("auth_service_profile_failed: %w", err)
	}

	return profile, nil
}

// trail appends an audit entry, logging and swallowing failures: audit
// storage being down must not block logins.
func (service *Service) trail(ctx context.Context, entry audit.Entry) {
	if err := service.recorder.Record(ctx, entry); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "audit_record_failed", "action", entry.Action, "error", err)
	}
}

// isNotFound reports whether err is the repositories' not-found sentinel.
func isNotFound(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.HTTPStatus == http.StatusNotFound
}
