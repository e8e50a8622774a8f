// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package auth_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/auth"
	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/sec"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	byEmail map[string]*identity.User
	byID    map[string]*identity.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*identity.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (f *fakeUserRepo) List(context.Context, int, int) ([]*identity.User, int, error) {
	return nil, 0, nil
}
func (f *fakeUserRepo) Create(context.Context, *identity.User) error         { return nil }
func (f *fakeUserRepo) Update(context.Context, *identity.User) error         { return nil }
func (f *fakeUserRepo) SetActive(context.Context, string, bool) error        { return nil }
func (f *fakeUserRepo) UpdatePassword(context.Context, string, string) error { return nil }

type fakeDeveloperRepo struct {
	byUserID map[string]*identity.Developer
}

func (f *fakeDeveloperRepo) FindByID(context.Context, string) (*identity.Developer, error) {
	return nil, apperr.NotFound("Developer")
}

func (f *fakeDeveloperRepo) FindByUserID(_ context.Context, userID string) (*identity.Developer, error) {
	developer, ok := f.byUserID[userID]
	if !ok {
		return nil, apperr.NotFound("Developer")
	}
	return developer, nil
}

func (f *fakeDeveloperRepo) FindByAPIKey(context.Context, string) (*identity.Developer, error) {
	return nil, apperr.NotFound("Developer")
}
func (f *fakeDeveloperRepo) Create(context.Context, *identity.Developer) error { return nil }
func (f *fakeDeveloperRepo) UpdatePermissions(context.Context, string, map[identity.Environment]bool) error {
	return nil
}
func (f *fakeDeveloperRepo) TouchLastActive(context.Context, string) error { return nil }

type fakeSessionRepo struct {
	sessions map[string]string
}

func (f *fakeSessionRepo) Create(_ context.Context, token, userID string, _ time.Duration) error {
	f.sessions[token] = userID
	return nil
}

func (f *fakeSessionRepo) Resolve(_ context.Context, token string) (string, error) {
	userID, ok := f.sessions[token]
	if !ok {
		return "", apperr.NotFound("Session")
	}
	return userID, nil
}

func (f *fakeSessionRepo) Destroy(_ context.Context, token string) error {
	delete(f.sessions, token)
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
	service  *auth.Service
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	user := &identity.User{
		ID:           "user-1",
		Email:        "dev@meridianbank.io",
		PasswordHash: hash,
		Role:         identity.RoleDeveloper,
		IsActive:     true,
	}

	f := &fixture{
		users: &fakeUserRepo{
			byEmail: map[string]*identity.User{user.Email: user},
			byID:    map[string]*identity.User{user.ID: user},
		},
		sessions: &fakeSessionRepo{sessions: map[string]string{}},
		recorder: &fakeRecorder{},
	}

	f.service = auth.NewService(
		f.users,
		&fakeDeveloperRepo{byUserID: map[string]*identity.Developer{}},
		f.sessions,
		f.recorder,
		12*time.Hour,
	)
	return f
}

// # Service

/*
TestLogin_Success verifies that valid credentials yield a session token bound
to the user, plus a login audit entry.
*/
func TestLogin_Success(t *testing.T) {
	f := newFixture(t)

	session, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "dev@meridianbank.io",
		Password: "correct horse battery staple",
	})

	require.NoError(t, err)
	require.NotNil(t, session)

	// 1. Opaque hex token of the configured length
	assert.Len(t, session.Token, auth.SessionTokenLength*2)

	// 2. Session bound to the account
	assert.Equal(t, "user-1", f.sessions.sessions[session.Token])
	assert.Equal(t, "user-1", session.User.ID)

	// 3. Login is trailed
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, audit.ActionLogin, f.recorder.entries[0].Action)
}

/*
TestLogin_InvalidCredentials verifies both unknown emails and wrong passwords
yield the same generic 401 and leave no session behind.
*/
func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)

	// 1. Wrong password
	_, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "dev@meridianbank.io",
		Password: "wrong",
	})
	require.Error(t, err)
	wrongPassword := apperr.As(err)
	require.NotNil(t, wrongPassword)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.HTTPStatus)

	// 2. Unknown account — identical message, no enumeration signal
	_, err = f.service.Login(context.Background(), auth.LoginInput{
		Email:    "nobody@meridianbank.io",
		Password: "wrong",
	})
	unknownUser := apperr.As(err)
	require.NotNil(t, unknownUser)
	assert.Equal(t, wrongPassword.Message, unknownUser.Message)

	// 3. Nothing persisted, nothing trailed
	assert.Empty(t, f.sessions.sessions)
	assert.Empty(t, f.recorder.entries)
}

/*
TestLogin_InactiveAccount verifies a deactivated account cannot log in even
with the correct password.
*/
func TestLogin_InactiveAccount(t *testing.T) {
	f := newFixture(t)
	f.users.byEmail["dev@meridianbank.io"].IsActive = false

	_, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "dev@meridianbank.io",
		Password: "correct horse battery staple",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
	assert.Empty(t, f.sessions.sessions)
}

/*
TestLogout_Idempotent verifies that destroying an absent session succeeds.
*/
func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.service.Logout(context.Background(), "never-issued", "user-1"))
	assert.NoError(t, f.service.Logout(context.Background(), "never-issued", "user-1"))
}

/*
TestProfile verifies the self-service profile includes the developer profile
only when one is linked.
*/
func TestProfile(t *testing.T) {
	f := newFixture(t)

	// 1. Staff-style account: no developer profile
	profile, err := f.service.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.User.ID)
	assert.Nil(t, profile.Developer)

	// 2. Unknown account
	_, err = f.service.Profile(context.Background(), "ghost")
	require.Error(t, err)
}

// # HTTP Delivery

/*
TestLoginRoute_RateLimited verifies the login limiter rejects the sixth
attempt from one address with 429 BEFORE credentials are checked: the first
five all fail with 401 (wrong password), the sixth never reaches the
credential path.
*/
func TestLoginRoute_RateLimited(t *testing.T) {
	f := newFixture(t)

	g := guard.New(guard.Config{
		Sessions:   f.sessions,
		Users:      f.users,
		Developers: &fakeDeveloperRepo{},
		Tokens:     nil,
		Recorder:   f.recorder,
		TestKeys:   guard.NewTestKeyProvider(false),
	})

	limiter := guard.NewLimiter(15*time.Minute, 5)
	handler := auth.NewHandler(f.service, g, limiter)
	router := handler.Routes()

	attempt := func() *httptest.ResponseRecorder {
		body := bytes.NewBufferString(`{"email":"dev@meridianbank.io","password":"wrong"}`)
		request := httptest.NewRequest(http.MethodPost, "/login", body)
		request.Header.Set(constants.HeaderXRealIP, "203.0.113.7")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	// 1. Five attempts are evaluated (and rejected as bad credentials)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, attempt().Code)
	}

	// 2. The sixth is cut off by the limiter
	rejected := attempt()
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.NotEmpty(t, rejected.Header().Get("Retry-After"))
}

/*
TestLoginRoute_SetsCookie verifies a successful login injects the HttpOnly
session cookie.
*/
func TestLoginRoute_SetsCookie(t *testing.T) {
	f := newFixture(t)

	g := guard.New(guard.Config{
		Sessions:   f.sessions,
		Users:      f.users,
		Developers: &fakeDeveloperRepo{},
		Recorder:   f.recorder,
		TestKeys:   guard.NewTestKeyProvider(false),
	})

	handler := auth.NewHandler(f.service, g, guard.NewLimiter(15*time.Minute, 5))
	router := handler.Routes()

	body := bytes.NewBufferString(`{"email":"dev@meridianbank.io","password":"correct horse battery staple"}`)
	request := httptest.NewRequest(http.MethodPost, "/login", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}
