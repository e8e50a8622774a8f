// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package accounts_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/devportal/internal/accounts"
	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/sec"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	users map[string]*identity.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*identity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepo) List(context.Context, int, int) ([]*identity.User, int, error) {
	var out []*identity.User
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *identity.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email already registered")
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *identity.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	user, ok := f.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.IsActive = active
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

type fakeDeveloperRepo struct {
	developers map[string]*identity.Developer
}

func (f *fakeDeveloperRepo) FindByID(_ context.Context, id string) (*identity.Developer, error) {
	developer, ok := f.developers[id]
	if !ok {
		return nil, apperr.NotFound("Developer")
	}
	return developer, nil
}

func (f *fakeDeveloperRepo) FindByUserID(_ context.Context, userID string) (*identity.Developer, error) {
	for _, developer := range f.developers {
		if developer.UserID == userID {
			return developer, nil
		}
	}
	return nil, apperr.NotFound("Developer")
}

func (f *fakeDeveloperRepo) FindByAPIKey(_ context.Context, apiKey string) (*identity.Developer, error) {
	for _, developer := range f.developers {
		if developer.APIKey == apiKey {
			return developer, nil
		}
	}
	return nil, apperr.NotFound("Developer")
}

func (f *fakeDeveloperRepo) Create(_ context.Context, developer *identity.Developer) error {
	f.developers[developer.ID] = developer
	return nil
}

func (f *fakeDeveloperRepo) UpdatePermissions(_ context.Context, id string, permissions map[identity.Environment]bool) error {
	developer, ok := f.developers[id]
	if !ok {
		return apperr.NotFound("Developer")
	}
	developer.Permissions = permissions
	return nil
}

func (f *fakeDeveloperRepo) TouchLastActive(context.Context, string) error { return nil }

type fakeTokenRepo struct {
	tokens map[string]*identity.APIToken
}

func (f *fakeTokenRepo) FindActiveByHash(_ context.Context, tokenHash string) (*identity.APIToken, error) {
	for _, token := range f.tokens {
		if token.TokenHash == tokenHash && token.IsActive {
			return token, nil
		}
	}
	return nil, apperr.NotFound("Token")
}

func (f *fakeTokenRepo) ListByDeveloper(_ context.Context, developerID string) ([]*identity.APIToken, error) {
	var out []*identity.APIToken
	for _, token := range f.tokens {
		if token.DeveloperID == developerID {
			out = append(out, token)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) Create(_ context.Context, token *identity.APIToken) error {
	f.tokens[token.ID] = token
	return nil
}

func (f *fakeTokenRepo) Revoke(_ context.Context, id string) error {
	token, ok := f.tokens[id]
	if !ok {
		return apperr.NotFound("Token")
	}
	token.IsActive = false
	return nil
}

func (f *fakeTokenRepo) TouchLastUsed(context.Context, string) error { return nil }

type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Record(_ context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

// # Fixture

type fixture struct {
	service    *accounts.Service
	users      *fakeUserRepo
	developers *fakeDeveloperRepo
	tokens     *fakeTokenRepo
	recorder   *fakeRecorder
}

func newFixture() *fixture {
	f := &fixture{
		users:      &fakeUserRepo{users: map[string]*identity.User{}},
		developers: &fakeDeveloperRepo{developers: map[string]*identity.Developer{}},
		tokens:     &fakeTokenRepo{tokens: map[string]*identity.APIToken{}},
		recorder:   &fakeRecorder{},
	}
	f.service = accounts.NewService(f.users, f.developers, f.tokens, f.recorder, slog.Default())
	return f
}

func adminContext() context.Context {
	return ctxutil.WithIdentity(context.Background(), &identity.Identity{
		ID:   "admin-1",
		Role: identity.RoleAdmin,
	})
}

// # Account Management

/*
TestCreateUser_Staff verifies a staff account is created active, with a
hashed password and no developer profile.
*/
func TestCreateUser_Staff(t *testing.T) {
	f := newFixture()

	user, developer, err := f.service.CreateUser(adminContext(), accounts.CreateUserInput{
		Email:    "ops@meridianbank.io",
		FullName: "Ops Manager",
		Password: "correct horse battery",
		Role:     "manager",
	})

	require.NoError(t, err)
	assert.Nil(t, developer)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("correct horse battery", user.PasswordHash))

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, "admin-1", f.recorder.entries[0].UserID)
}

/*
TestCreateUser_Developer verifies the developer role also provisions a
profile: generated primary key, sandbox-only permissions.
*/
func TestCreateUser_Developer(t *testing.T) {
	f := newFixture()

	user, developer, err := f.service.CreateUser(adminContext(), accounts.CreateUserInput{
		Email:    "dev@example.com",
		FullName: "Jane Integrator",
		Password: "a long enough password",
		Role:     "developer",
	})

	require.NoError(t, err)
	require.NotNil(t, developer)
	assert.Equal(t, user.ID, developer.UserID)
	assert.Len(t, developer.APIKey, accounts.APIKeyByteLength*2, "hex-encoded key")

	assert.True(t, developer.CanAccess(identity.EnvSandbox))
	assert.False(t, developer.CanAccess(identity.EnvUAT))
	assert.False(t, developer.CanAccess(identity.EnvProduction))
}

/*
TestCreateUser_Invalid verifies bad email, short password, and unknown role
are all collected as validation failures.
*/
func TestCreateUser_Invalid(t *testing.T) {
	f := newFixture()

	_, _, err := f.service.CreateUser(adminContext(), accounts.CreateUserInput{
		Email:    "not-an-email",
		FullName: "X",
		Password: "short",
		Role:     "root",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
	assert.Empty(t, f.users.users)
}

/*
TestCreateUser_DuplicateEmail verifies the unique email constraint surfaces
as 409.
*/
func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := newFixture()
	f.users.users["u-1"] = &identity.User{ID: "u-1", Email: "dev@example.com"}

	_, _, err := f.service.CreateUser(adminContext(), accounts.CreateUserInput{
		Email:    "dev@example.com",
		FullName: "Jane",
		Password: "a long enough password",
		Role:     "editor",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

/*
TestSetUserActive verifies deactivation flips the flag and trails the
change.
*/
func TestSetUserActive(t *testing.T) {
	f := newFixture()
	f.users.users["u-1"] = &identity.User{ID: "u-1", IsActive: true}

	require.NoError(t, f.service.SetUserActive(adminContext(), "u-1", false))
	assert.False(t, f.users.users["u-1"].IsActive)

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, "deactivated", f.recorder.entries[0].Details)
}

/*
TestChangeRole verifies reassignment and rejection of unknown roles.
*/
func TestChangeRole(t *testing.T) {
	f := newFixture()
	f.users.users["u-1"] = &identity.User{ID: "u-1", Role: identity.RoleDeveloper}

	user, err := f.service.ChangeRole(adminContext(), "u-1", "editor")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleEditor, user.Role)

	_, err = f.service.ChangeRole(adminContext(), "u-1", "superuser")
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
}

// # Permissions

/*
TestUpdatePermissions verifies the map is replaced wholesale and unknown
environment names are rejected.
*/
func TestUpdatePermissions(t *testing.T) {
	f := newFixture()
	f.developers.developers["dev-1"] = &identity.Developer{
		ID:          "dev-1",
		Permissions: map[identity.Environment]bool{identity.EnvSandbox: true},
	}

	developer, err := f.service.UpdatePermissions(adminContext(), "dev-1", map[string]bool{
		"sandbox": true,
		"uat":     true,
	})

	require.NoError(t, err)
	assert.True(t, developer.CanAccess(identity.EnvUAT))
	assert.False(t, developer.CanAccess(identity.EnvProduction))

	_, err = f.service.UpdatePermissions(adminContext(), "dev-1", map[string]bool{"staging": true})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
}

// # Token Lifecycle

/*
TestIssueToken verifies only the digest is stored and the plaintext round-
trips through the digest lookup exactly once.
*/
func TestIssueToken(t *testing.T) {
	f := newFixture()
	f.developers.developers["dev-1"] = &identity.Developer{ID: "dev-1"}

	issued, err := f.service.IssueToken(adminContext(), "dev-1", "ci-pipeline")

	require.NoError(t, err)
	assert.Len(t, issued.Token, accounts.TokenByteLength*2)
	assert.NotEqual(t, issued.Token, issued.APIToken.TokenHash)
	assert.Equal(t, sec.HashToken(issued.Token), issued.APIToken.TokenHash)
	assert.True(t, issued.APIToken.IsActive)

	// The stored row resolves by digest, as the key authenticator would
	found, err := f.tokens.FindActiveByHash(context.Background(), sec.HashToken(issued.Token))
	require.NoError(t, err)
	assert.Equal(t, issued.APIToken.ID, found.ID)
}

/*
TestRevokeToken verifies revocation makes the digest lookup miss, which the
authenticator maps to a generic 401.
*/
func TestRevokeToken(t *testing.T) {
	f := newFixture()
	f.developers.developers["dev-1"] = &identity.Developer{ID: "dev-1"}

	issued, err := f.service.IssueToken(adminContext(), "dev-1", "ci-pipeline")
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeToken(adminContext(), issued.APIToken.ID))

	_, err = f.tokens.FindActiveByHash(context.Background(), sec.HashToken(issued.Token))
	require.Error(t, err)
}

/*
TestIssueToken_UnknownDeveloper verifies issuance requires an existing
profile.
*/
func TestIssueToken_UnknownDeveloper(t *testing.T) {
	f := newFixture()

	_, err := f.service.IssueToken(adminContext(), "ghost", "ci-pipeline")

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}
