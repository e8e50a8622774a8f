// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package guard

import (
	"net/http"
	"strings"

	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/respond"
	"github.com/meridianbank/devportal/pkg/slice"
)

// # Role Gate

// RequireRole accepts the request only when the caller's role is a member of
// the given set.
//
// # Behavior
//   - No identity attached → 401 (the gate was mounted without an
//     authenticator, or the authenticator was bypassed — either way, fail closed).
//   - Role not in the set → 403, naming the accepted roles.
//
// The gate is a pure predicate: no storage access, no audit side effects.
// Denials surface in the structured request log (status 403) instead.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			caller := ctxutil.GetIdentity(request.Context())
			if caller == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(writer, request)
					return
				}
			}

			respond.Error(writer, request, apperr.Forbidden(
				"Requires one of the following roles: "+joinRoles(roles),
			))
		})
	}
}

func joinRoles(roles []identity.Role) string {
	names := slice.Map(roles, func(role identity.Role) string { return string(role) })
	return strings.Join(names, ", ")
}

// # Environment Gate

// RequireEnvironment accepts the request only when the caller's developer
// profile is permitted to use the given environment.
//
// # Flow
//
//  1. No identity → 401.
//  2. Synthetic sandbox identity → short-circuit: sandbox passes, every
//     other environment is denied. No repository lookup happens on this path.
//  3. No linked developer profile → 403 "Developer profile required"
//     (staff accounts and freshly registered users land here).
//  4. Load the developer and inspect its permission map; missing entries
//     are denials.
//
// The permission map is re-read per request rather than cached in the
// session: an admin narrowing a developer's environments must take effect
// on the developer's next call.
func (g *Guard) RequireEnvironment(env identity.Environment) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			caller := ctxutil.GetIdentity(request.Context())
			if caller == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── Synthetic sandbox identity short-circuit ───────────────
			if caller.IsSynthetic() {
				if env == identity.EnvSandbox {
					next.ServeHTTP(writer, request)
					return
				}
				respond.Error(writer, request, apperr.Forbidden("Environment access denied"))
				return
			}

			if caller.DeveloperID == "" {
				respond.Error(writer, request, apperr.Forbidden("Developer profile required"))
				return
			}

			developer, err := g.developers.FindByID(request.Context(), caller.DeveloperID)
			if err != nil {
				if isNotFound(err) {
					respond.Error(writer, request, apperr.Forbidden("Developer profile required"))
					return
				}
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			if !developer.CanAccess(env) {
				respond.Error(writer, request, apperr.Forbidden("Environment access denied"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
