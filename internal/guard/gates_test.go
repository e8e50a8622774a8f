// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
)

// serveAs runs the handler with the given identity pre-attached, the way an
// authenticator upstream would have left it.
func serveAs(handler http.Handler, caller *identity.Identity) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if caller != nil {
		request = request.WithContext(ctxutil.WithIdentity(request.Context(), caller))
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

// # Role Gate

/*
TestRequireRole covers the three outcomes of the role gate: anonymous (401),
insufficient role (403 naming the accepted set), member role (pass).
*/
func TestRequireRole(t *testing.T) {
	gate := guard.RequireRole(identity.RoleAdmin, identity.RoleManager)(okHandler())

	// 1. No identity attached
	recorder := serveAs(gate, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// 2. Role outside the accepted set
	recorder = serveAs(gate, &identity.Identity{ID: "user-1", Role: identity.RoleDeveloper})
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "admin, manager")

	// 3. Member of the accepted set
	recorder = serveAs(gate, &identity.Identity{ID: "user-2", Role: identity.RoleManager})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRequireRole_SingleRole verifies the common single-role mount.
*/
func TestRequireRole_SingleRole(t *testing.T) {
	gate := guard.RequireRole(identity.RoleAdmin)(okHandler())

	recorder := serveAs(gate, &identity.Identity{ID: "user-1", Role: identity.RoleEditor})
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = serveAs(gate, &identity.Identity{ID: "user-2", Role: identity.RoleAdmin})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

// # Environment Gate

func environmentFixture() (*fixture, *identity.Developer) {
	f := newFixture(true, false)
	developer := &identity.Developer{
		ID:     "dev-1",
		UserID: "user-1",
		Permissions: map[identity.Environment]bool{
			identity.EnvSandbox: true,
			identity.EnvUAT:     false,
		},
	}
	f.developers.byID["dev-1"] = developer
	return f, developer
}

/*
TestRequireEnvironment_Granted verifies a developer with the permission
passes the gate.
*/
func TestRequireEnvironment_Granted(t *testing.T) {
	f, _ := environmentFixture()
	gate := f.guard.RequireEnvironment(identity.EnvSandbox)(okHandler())

	recorder := serveAs(gate, &identity.Identity{ID: "user-1", Role: identity.RoleDeveloper, DeveloperID: "dev-1"})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRequireEnvironment_Denied verifies both an explicit false entry and a
missing entry are denials.
*/
func TestRequireEnvironment_Denied(t *testing.T) {
	f, _ := environmentFixture()
	caller := &identity.Identity{ID: "user-1", Role: identity.RoleDeveloper, DeveloperID: "dev-1"}

	// 1. Explicit false
	recorder := serveAs(f.guard.RequireEnvironment(identity.EnvUAT)(okHandler()), caller)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Environment access denied")

	// 2. Missing map entry
	recorder = serveAs(f.guard.RequireEnvironment(identity.EnvProduction)(okHandler()), caller)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

/*
TestRequireEnvironment_NoProfile verifies staff accounts (no developer
profile) are rejected with the dedicated message.
*/
func TestRequireEnvironment_NoProfile(t *testing.T) {
	f, _ := environmentFixture()
	gate := f.guard.RequireEnvironment(identity.EnvSandbox)(okHandler())

	recorder := serveAs(gate, &identity.Identity{ID: "admin-1", Role: identity.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Developer profile required")
}

/*
TestRequireEnvironment_Anonymous verifies the gate fails closed when mounted
without an authenticator.
*/
func TestRequireEnvironment_Anonymous(t *testing.T) {
	f, _ := environmentFixture()
	gate := f.guard.RequireEnvironment(identity.EnvSandbox)(okHandler())

	recorder := serveAs(gate, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestRequireEnvironment_Synthetic verifies the synthetic sandbox identity
short-circuit: sandbox always passes without a repository lookup, every
other environment is denied.
*/
func TestRequireEnvironment_Synthetic(t *testing.T) {
	f, _ := environmentFixture()
	synthetic := &identity.Identity{ID: identity.SandboxUserID, Role: identity.RoleDeveloper}

	// 1. Sandbox passes unconditionally
	before := f.developers.lookups
	recorder := serveAs(f.guard.RequireEnvironment(identity.EnvSandbox)(okHandler()), synthetic)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, before, f.developers.lookups, "synthetic identity must not trigger a repository lookup")

	// 2. Everything else is denied
	recorder = serveAs(f.guard.RequireEnvironment(identity.EnvProduction)(okHandler()), synthetic)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = serveAs(f.guard.RequireEnvironment(identity.EnvUAT)(okHandler()), synthetic)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
