// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package guard implements the request authorization pipeline of the portal.

It provides composable chi-compatible interceptors applied in front of the
route handlers:

  - Authenticate: resolves the session cookie to a caller identity.
  - AuthenticateAPIKey: resolves a programmatic credential (header or query).
  - RequireRole: accepts or rejects based on the caller's role.
  - RequireEnvironment: accepts or rejects based on developer permissions.
  - RateLimit: identity-keyed sliding-window quota enforcement.

Control flow per request is strictly linear: each stage either calls through
to the next handler or terminates the request with an HTTP error. No stage
attempts recovery, retry, or fallback — the pipeline fails closed. The only
mutable state shared across requests is the rate limiter's counters; the
caller identity attached to the context lives exactly one request.
*/
package guard

import (
	"context"
	"net/http"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/middleware"
	"github.com/meridianbank/devportal/internal/platform/respond"
	"github.com/meridianbank/devportal/internal/platform/sec"
)

// # Storage Contracts
//
// The guard defines its own narrow read-side interfaces instead of importing
// the full repository contracts. Tests inject tiny in-memory fakes; the wiring
// in cmd/api satisfies them with the real PostgreSQL and Redis repositories.

// SessionStore resolves and destroys opaque session tokens.
type SessionStore interface {
	// Resolve returns the user ID bound to the session token.
	// Returns [apperr.NotFound] if the session is absent or expired.
	Resolve(ctx context.Context, token string) (string, error)

	// Destroy removes the session. Destroying an absent session is not an error.
	Destroy(ctx context.Context, token string) error
}

// UserFinder is the account lookup performed on every session resolution.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*identity.User, error)
}

// DeveloperAccess covers the developer-profile reads of both authenticators
// plus the activity bookkeeping write.
type DeveloperAccess interface {
	FindByID(ctx context.Context, id string) (*identity.Developer, error)
	FindByUserID(ctx context.Context, userID string) (*identity.Developer, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*identity.Developer, error)
	TouchLastActive(ctx context.Context, id string) error
}

// TokenAccess covers the secondary-token reads of the API-key authenticator.
type TokenAccess interface {
	FindActiveByHash(ctx context.Context, tokenHash string) (*identity.APIToken, error)
	TouchLastUsed(ctx context.Context, id string) error
}

// # Guard

// Guard carries the dependencies shared by the authenticators and the
// environment gate.
type Guard struct {
	sessions   SessionStore
	users      UserFinder
	developers DeveloperAccess
	tokens     TokenAccess
	recorder   audit.Recorder
	testKeys   *TestKeyProvider

	// auditTokenAccess mirrors the AuditTokenAccess configuration knob:
	// when false (the default), secondary-token authentications skip the
	// audit append to keep high-frequency machine traffic out of the trail.
	auditTokenAccess bool
}

// Config bundles the constructor dependencies of [New].
type Config struct {
	Sessions         SessionStore
	Users            UserFinder
	Developers       DeveloperAccess
	Tokens           TokenAccess
	Recorder         audit.Recorder
	TestKeys         *TestKeyProvider
	AuditTokenAccess bool
}

// New constructs the authorization [Guard].
func New(cfg Config) *Guard {
	return &Guard{
		sessions:         cfg.Sessions,
		users:            cfg.Users,
		developers:       cfg.Developers,
		tokens:           cfg.Tokens,
		recorder:         cfg.Recorder,
		testKeys:         cfg.TestKeys,
		auditTokenAccess: cfg.AuditTokenAccess,
	}
}

// # Session Authentication

// Authenticate resolves the portal session cookie to a caller identity.
//
// # Flow
//
//  1. Read the session cookie; absent cookie means anonymous → 401.
//  2. Resolve the opaque token against the session store → 401 if unknown.
//  3. Load the account and verify it is still active. A deactivated account
//     invalidates the session immediately, so revocation takes effect on the
//     caller's next request, not at session expiry.
//  4. Attach the developer profile ID when one exists (staff accounts have none).
//  5. Append an "api_access" audit entry, then call the next handler.
//
// # Security
//
// Session-store and repository failures surface as 500, never as 401: an
// infrastructure outage must not be mistaken for a credential problem.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()

		// ── 1. Extract the session cookie ──────────────────────────────
		cookie, err := request.Cookie(constants.SessionCookieName)
		if err != nil || cookie.Value == "" {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}

		// ── 2. Resolve the opaque token ────────────────────────────────
		userID, err := g.sessions.Resolve(ctx, cookie.Value)
		if err != nil {
			if isNotFound(err) {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired session"))
				return
			}
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		// ── 3. Load the account and re-check activation ────────────────
		user, err := g.users.FindByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				g.destroySession(ctx, cookie.Value)
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired session"))
				return
			}
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		if !user.IsActive {
			// Deactivation revokes the session, not just this request.
			g.destroySession(ctx, cookie.Value)
			respond.Error(writer, request, apperr.Unauthorized("Account is deactivated"))
			return
		}

		caller := &identity.Identity{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		}

		// ── 4. Attach the developer profile when present ───────────────
		developer, err := g.developers.FindByUserID(ctx, user.ID)
		switch {
		case err == nil:
			caller.DeveloperID = developer.ID
		case isNotFound(err):
			// Staff accounts have no developer profile.
		default:
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		ctx = ctxutil.WithIdentity(ctx, caller)

		// ── 5. Audit the authenticated access ──────────────────────────
		g.record(ctx, request, audit.Entry{
			UserID: caller.ID,
			Action: audit.ActionAPIAccess,
		})

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// # API-Key Authentication

// AuthenticateAPIKey resolves a programmatic credential to a caller identity.
//
// # Resolution Order
//
// The credential is read from the X-API-Key header first, then from the
// api_key query parameter. Resolution then walks three tiers, first match
// wins:
//
//  1. Reserved development keys → synthetic sandbox identity, no storage hit.
//  2. A developer's primary API key → audited, bumps LastActiveAt.
//  3. An active secondary token, matched by SHA-256 digest → bumps LastUsedAt,
//     audited only when AuditTokenAccess is enabled.
//
// Every miss falls through to the next tier; exhausting all three yields a
// single generic 401 so callers cannot probe which tier rejected them.
func (g *Guard) AuthenticateAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()

		key := request.Header.Get(constants.HeaderAPIKey)
		if key == "" {
			key = request.URL.Query().Get(constants.QueryAPIKey)
		}
		if key == "" {
			respond.Error(writer, request, apperr.Unauthorized("API key required"))
			return
		}

		// ── 1. Reserved development keys ───────────────────────────────
		if caller, ok := g.testKeys.Identity(key); ok {
			ctx = ctxutil.WithIdentity(ctx, caller)
			next.ServeHTTP(writer, request.WithContext(ctx))
			return
		}

		// ── 2. Primary developer key ───────────────────────────────────
		developer, err := g.developers.FindByAPIKey(ctx, key)
		switch {
		case err == nil:
			g.touchDeveloper(ctx, developer.ID)

			caller := identityForDeveloper(developer)
			ctx = ctxutil.WithIdentity(ctx, caller)

			g.record(ctx, request, audit.Entry{
				UserID: caller.ID,
				Action: audit.ActionAPIKeyAccess,
			})

			next.ServeHTTP(writer, request.WithContext(ctx))
			return
		case !isNotFound(err):
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		// ── 3. Secondary token, matched by digest ──────────────────────
		token, err := g.tokens.FindActiveByHash(ctx, sec.HashToken(key))
		if err != nil {
			if isNotFound(err) {
				respond.Error(writer, request, apperr.Unauthorized("Invalid API key"))
				return
			}
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		developer, err = g.developers.FindByID(ctx, token.DeveloperID)
		if err != nil {
			if isNotFound(err) {
				// Orphaned token: its developer row is gone. Treat as invalid.
				respond.Error(writer, request, apperr.Unauthorized("Invalid API key"))
				return
			}
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		if err := g.tokens.TouchLastUsed(ctx, token.ID); err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "token_last_used_bump_failed", "token_id", token.ID, "error", err)
		}

		caller := identityForDeveloper(developer)
		ctx = ctxutil.WithIdentity(ctx, caller)

		if g.auditTokenAccess {
			g.record(ctx, request, audit.Entry{
				UserID:     caller.ID,
				Action:     audit.ActionAPIKeyAccess,
				ResourceID: token.ID,
			})
		}

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// AuthenticateAny accepts either credential kind on one route: requests
// presenting an API key (header or query) go through the key authenticator,
// everything else through the session authenticator. Used by the sandbox
// playground, which serves both browser and programmatic callers.
func (g *Guard) AuthenticateAny(next http.Handler) http.Handler {
	session := g.Authenticate(next)
	apiKey := g.AuthenticateAPIKey(next)

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get(constants.HeaderAPIKey) != "" || request.URL.Query().Get(constants.QueryAPIKey) != "" {
			apiKey.ServeHTTP(writer, request)
			return
		}
		session.ServeHTTP(writer, request)
	})
}

// # Internal Helpers

// identityForDeveloper builds the per-request identity for a programmatic
// credential. Programmatic callers always act in the developer role; staff
// roles are reachable only through the session authenticator.
func identityForDeveloper(developer *identity.Developer) *identity.Identity {
	return &identity.Identity{
		ID:          developer.UserID,
		Email:       developer.Email,
		Role:        identity.RoleDeveloper,
		DeveloperID: developer.ID,
	}
}

// record appends an audit entry, filling the request-derived fields.
// Audit failures are logged and swallowed: an unavailable audit store must
// not take down authenticated traffic.
func (g *Guard) record(ctx context.Context, request *http.Request, entry audit.Entry) {
	entry.Resource = request.Method + " " + request.URL.Path
	entry.IPAddress = middleware.RealIP(request)
	entry.UserAgent = request.UserAgent()

	if err := g.recorder.Record(ctx, entry); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "audit_record_failed", "action", entry.Action, "error", err)
	}
}

// destroySession invalidates a session, best effort.
func (g *Guard) destroySession(ctx context.Context, token string) {
	if err := g.sessions.Destroy(ctx, token); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_destroy_failed", "error", err)
	}
}

// touchDeveloper bumps LastActiveAt, best effort.
func (g *Guard) touchDeveloper(ctx context.Context, id string) {
	if err := g.developers.TouchLastActive(ctx, id); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "developer_last_active_bump_failed", "developer_id", id, "error", err)
	}
}

// isNotFound reports whether err is the repositories' not-found sentinel.
func isNotFound(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.HTTPStatus == http.StatusNotFound
}
