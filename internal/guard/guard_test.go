// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package guard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/sec"
)

// # In-Memory Fakes

type fakeSessions struct {
	sessions  map[string]string // token -> user ID
	destroyed []string
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (string, error) {
	userID, ok := f.sessions[token]
	if !ok {
		return "", apperr.NotFound("Session")
	}
	return userID, nil
}

func (f *fakeSessions) Destroy(_ context.Context, token string) error {
	delete(f.sessions, token)
	f.destroyed = append(f.destroyed, token)
	return nil
}

type fakeUsers struct {
	users map[string]*identity.User
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*identity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

type fakeDevelopers struct {
	byID     map[string]*identity.Developer
	byUserID map[string]*identity.Developer
	byAPIKey map[string]*identity.Developer
	lookups  int
	touched  []string
}

func (f *fakeDevelopers) FindByID(_ context.Context, id string) (*identity.Developer, error) {
	f.lookups++
	developer, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("Developer")
	}
	return developer, nil
}

func (f *fakeDevelopers) FindByUserID(_ context.Context, userID string) (*identity.Developer, error) {
	f.lookups++
	developer, ok := f.byUserID[userID]
	if !ok {
		return nil, apperr.NotFound("Developer")
	}
	return developer, nil
}

func (f *fakeDevelopers) FindByAPIKey(_ context.Context, apiKey string) (*identity.Developer, error) {
	f.lookups++
	developer, ok := f.byAPIKey[apiKey]
	if !ok {
		return nil, apperr.NotFound("Developer")
	}
	return developer, nil
}

func (f *fakeDevelopers) TouchLastActive(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeTokens struct {
	byHash  map[string]*identity.APIToken
	lookups int
	touched []string
}

func (f *fakeTokens) FindActiveByHash(_ context.Context, hash string) (*identity.APIToken, error) {
	f.lookups++
	token, ok := f.byHash[hash]
	if !ok || !token.IsActive {
		return nil, apperr.NotFound("Token")
	}
	return token, nil
}

func (f *fakeTokens) TouchLastUsed(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Record(_ context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

// # Fixture

type fixture struct {
	guard      *guard.Guard
	sessions   *fakeSessions
	users      *fakeUsers
	developers *fakeDevelopers
	tokens     *fakeTokens
	recorder   *fakeRecorder
}

func newFixture(testKeysEnabled, auditTokenAccess bool) *fixture {
	f := &fixture{
		sessions:   &fakeSessions{sessions: map[string]string{}},
		users:      &fakeUsers{users: map[string]*identity.User{}},
		developers: &fakeDevelopers{byID: map[string]*identity.Developer{}, byUserID: map[string]*identity.Developer{}, byAPIKey: map[string]*identity.Developer{}},
		tokens:     &fakeTokens{byHash: map[string]*identity.APIToken{}},
		recorder:   &fakeRecorder{},
	}
	f.guard = guard.New(guard.Config{
		Sessions:         f.sessions,
		Users:            f.users,
		Developers:       f.developers,
		Tokens:           f.tokens,
		Recorder:         f.recorder,
		TestKeys:         guard.NewTestKeyProvider(testKeysEnabled),
		AuditTokenAccess: auditTokenAccess,
	})
	return f
}

// captureHandler records the identity the pipeline attached for the handler.
func captureHandler(caller **identity.Identity) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*caller = ctxutil.GetIdentity(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Code
}

// # Session Authenticator

/*
TestAuthenticate_Success verifies the full happy path: cookie → session →
active user → developer profile → identity attached → audit entry appended.
*/
func TestAuthenticate_Success(t *testing.T) {
	f := newFixture(true, false)
	f.sessions.sessions["tok-1"] = "user-1"
	f.users.users["user-1"] = &identity.User{ID: "user-1", Email: "dev@meridianbank.io", Role: identity.RoleDeveloper, IsActive: true}
	f.developers.byUserID["user-1"] = &identity.Developer{ID: "dev-1", UserID: "user-1"}

	var caller *identity.Identity
	handler := f.guard.Authenticate(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "tok-1"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	// 1. Handler was reached with the resolved identity
	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Equal(t, "user-1", caller.ID)
	assert.Equal(t, identity.RoleDeveloper, caller.Role)
	assert.Equal(t, "dev-1", caller.DeveloperID)

	// 2. Every session-authenticated request leaves exactly one trail entry
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, audit.ActionAPIAccess, f.recorder.entries[0].Action)
	assert.Equal(t, "user-1", f.recorder.entries[0].UserID)
	assert.Equal(t, "GET /api/v1/catalog", f.recorder.entries[0].Resource)
}

/*
TestAuthenticate_MissingCookie verifies that anonymous requests are rejected
without touching the session store.
*/
func TestAuthenticate_MissingCookie(t *testing.T) {
	f := newFixture(true, false)

	handler := f.guard.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, recorder))
	assert.Empty(t, f.recorder.entries)
}

/*
TestAuthenticate_UnknownSession verifies that a stale cookie yields 401.
*/
func TestAuthenticate_UnknownSession(t *testing.T) {
	f := newFixture(true, false)

	handler := f.guard.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "expired"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestAuthenticate_InactiveUser verifies that a deactivated account is rejected
with 401 AND has its session destroyed, so revocation is immediate.
*/
func TestAuthenticate_InactiveUser(t *testing.T) {
	f := newFixture(true, false)
	f.sessions.sessions["tok-1"] = "user-1"
	f.users.users["user-1"] = &identity.User{ID: "user-1", Role: identity.RoleDeveloper, IsActive: false}

	handler := f.guard.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "tok-1"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	// 1. Treated as unauthenticated, not forbidden
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// 2. The session itself is gone
	assert.Contains(t, f.sessions.destroyed, "tok-1")
	assert.Empty(t, f.sessions.sessions)
}

/*
TestAuthenticate_StaffWithoutProfile verifies that accounts without a
developer profile authenticate normally with an empty DeveloperID.
*/
func TestAuthenticate_StaffWithoutProfile(t *testing.T) {
	f := newFixture(true, false)
	f.sessions.sessions["tok-1"] = "admin-1"
	f.users.users["admin-1"] = &identity.User{ID: "admin-1", Role: identity.RoleAdmin, IsActive: true}

	var caller *identity.Identity
	handler := f.guard.Authenticate(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "tok-1"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Empty(t, caller.DeveloperID)
}

// # API-Key Authenticator

/*
TestAuthenticateAPIKey_TestKey verifies tier 1: a reserved development key
resolves to the synthetic sandbox identity without any repository call and
without an audit entry.
*/
func TestAuthenticateAPIKey_TestKey(t *testing.T) {
	f := newFixture(true, false)

	var caller *identity.Identity
	handler := f.guard.AuthenticateAPIKey(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, "sandbox_test_key")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	// 1. Synthetic identity attached
	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Equal(t, identity.SandboxUserID, caller.ID)
	assert.Equal(t, identity.RoleDeveloper, caller.Role)
	assert.True(t, caller.IsSynthetic())

	// 2. No storage was consulted, nothing was audited
	assert.Zero(t, f.developers.lookups)
	assert.Zero(t, f.tokens.lookups)
	assert.Empty(t, f.recorder.entries)
}

/*
TestAuthenticateAPIKey_TestKeyDisabled verifies the reserved keys are dead
strings when the provider is disabled (production).
*/
func TestAuthenticateAPIKey_TestKeyDisabled(t *testing.T) {
	f := newFixture(false, false)

	handler := f.guard.AuthenticateAPIKey(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, "sandbox_test_key")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestAuthenticateAPIKey_PrimaryKey verifies tier 2: a developer's primary key
attaches the developer identity, bumps LastActiveAt, and appends an
api_key_access audit entry.
*/
func TestAuthenticateAPIKey_PrimaryKey(t *testing.T) {
	f := newFixture(true, false)
	f.developers.byAPIKey["mk_live_abc"] = &identity.Developer{ID: "dev-1", UserID: "user-1", Email: "dev@corp.example"}

	var caller *identity.Identity
	handler := f.guard.AuthenticateAPIKey(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, "mk_live_abc")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Equal(t, "user-1", caller.ID)
	assert.Equal(t, "dev-1", caller.DeveloperID)
	assert.Equal(t, identity.RoleDeveloper, caller.Role)

	// Activity bookkeeping + audit trail
	assert.Equal(t, []string{"dev-1"}, f.developers.touched)
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, audit.ActionAPIKeyAccess, f.recorder.entries[0].Action)
}

/*
TestAuthenticateAPIKey_TierPrecedence verifies that a valid primary key wins
before the token tier is ever consulted.
*/
func TestAuthenticateAPIKey_TierPrecedence(t *testing.T) {
	f := newFixture(true, false)
	f.developers.byAPIKey["mk_live_abc"] = &identity.Developer{ID: "dev-1", UserID: "user-1"}

	var caller *identity.Identity
	handler := f.guard.AuthenticateAPIKey(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, "mk_live_abc")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Zero(t, f.tokens.lookups, "token tier must not be consulted after a primary-key match")
}

/*
TestAuthenticateAPIKey_SecondaryToken verifies tier 3: an active token is
matched by digest, bumps LastUsedAt, and is NOT audited by default.
*/
func TestAuthenticateAPIKey_SecondaryToken(t *testing.T) {
	f := newFixture(true, false)
	plaintext := "tok_secret_xyz"
	f.tokens.byHash[sec.HashToken(plaintext)] = &identity.APIToken{ID: "token-1", DeveloperID: "dev-1", IsActive: true}
	f.developers.byID["dev-1"] = &identity.Developer{ID: "dev-1", UserID: "user-1", Email: "dev@corp.example"}

	var caller *identity.Identity
	handler := f.guard.AuthenticateAPIKey(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, plaintext)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Equal(t, "dev-1", caller.DeveloperID)

	// 1. Usage timestamp bumped
	assert.Equal(t, []string{"token-1"}, f.tokens.touched)

	// 2. Token traffic is not audited unless the knob is on
	assert.Empty(t, f.recorder.entries)
}

/*
TestAuthenticateAPIKey_SecondaryTokenAudited verifies the AuditTokenAccess
knob turns on trail entries for the token tier.
*/
func TestAuthenticateAPIKey_SecondaryTokenAudited(t *testing.T) {
	f := newFixture(true, true)
	plaintext := "tok_secret_xyz"
	f.tokens.byHash[sec.HashToken(plaintext)] = &identity.APIToken{ID: "token-1", DeveloperID: "dev-1", IsActive: true}
	f.developers.byID["dev-1"] = &identity.Developer{ID: "dev-1", UserID: "user-1"}

	handler := f.guard.AuthenticateAPIKey(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, plaintext)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, audit.ActionAPIKeyAccess, f.recorder.entries[0].Action)
	assert.Equal(t, "token-1", f.recorder.entries[0].ResourceID)
}

/*
TestAuthenticateAPIKey_RevokedToken verifies a revoked token is
indistinguishable from an invalid key.
*/
func TestAuthenticateAPIKey_RevokedToken(t *testing.T) {
	f := newFixture(true, false)
	plaintext := "tok_revoked"
	f.tokens.byHash[sec.HashToken(plaintext)] = &identity.APIToken{ID: "token-1", DeveloperID: "dev-1", IsActive: false}

	handler := f.guard.AuthenticateAPIKey(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAPIKey, plaintext)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, recorder))
	assert.Empty(t, f.tokens.touched)
}

/*
TestAuthenticateAPIKey_HeaderWinsOverQuery verifies the credential precedence
when both carriers are present.
*/
func TestAuthenticateAPIKey_HeaderWinsOverQuery(t *testing.T) {
	f := newFixture(true, false)
	f.developers.byAPIKey["header_key"] = &identity.Developer{ID: "dev-header", UserID: "user-1"}
	f.developers.byAPIKey["query_key"] = &identity.Developer{ID: "dev-query", UserID: "user-2"}

	var caller *identity.Identity
	handler := f.guard.AuthenticateAPIKey(captureHandler(&caller))

	request := httptest.NewRequest(http.MethodGet, "/?api_key=query_key", nil)
	request.Header.Set(constants.HeaderAPIKey, "header_key")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Equal(t, "dev-header", caller.DeveloperID)
}

/*
TestAuthenticateAPIKey_QueryFallback verifies the query parameter works when
no header is present.
*/
func TestAuthenticateAPIKey_QueryFallback(t *testing.T) {
	f := newFixture(true, false)
	f.developers.byAPIKey["query_key"] = &identity.Developer{ID: "dev-query", UserID: "user-2"}

	var caller *identity.Identity
	handler := f.guard.AuthenticateAPIKey(captureHandler(&caller))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/?api_key=query_key", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, caller)
	assert.Equal(t, "dev-query", caller.DeveloperID)
}

/*
TestAuthenticateAPIKey_MissingKey verifies the dedicated message for requests
carrying no credential at all.
*/
func TestAuthenticateAPIKey_MissingKey(t *testing.T) {
	f := newFixture(true, false)

	handler := f.guard.AuthenticateAPIKey(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
