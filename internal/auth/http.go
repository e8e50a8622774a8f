// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/platform/constants"
	"github.com/meridianbank/devportal/internal/platform/middleware"
	requestutil "github.com/meridianbank/devportal/internal/platform/request"
	"github.com/meridianbank/devportal/internal/platform/respond"
	"github.com/meridianbank/devportal/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the session lifecycle HTTP endpoints.
type Handler struct {
	authService  *Service
	guard        *guard.Guard
	loginLimiter *guard.Limiter
}

// NewHandler constructs a new auth [Handler].
//
// The login limiter is mounted in front of credential checking, so an
// address exceeding its quota is rejected before any password comparison
// or user lookup happens.
func NewHandler(service *Service, g *guard.Guard, loginLimiter *guard.Limiter) *Handler {
	return &Handler{
		authService:  service,
		guard:        g,
		loginLimiter: loginLimiter,
	}
}

// Routes returns a [chi.Router] configured with the auth endpoints.
//
// # Endpoints
//   - POST /login  : Establishes a session (IP rate limited).
//   - POST /logout : Destroys the current session.
//   - GET  /me     : Returns the caller's account and developer profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public, behind the per-IP login limiter
	router.With(guard.RateLimit(handler.loginLimiter)).Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.guard.Authenticate)
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.me)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials and injects the opaque session cookie.
The limiter in front of this route counts every attempt, successful or not,
per client address.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: User profile of the authenticated account
  - 401: ErrUnauthorized: Invalid credentials or deactivated account
  - 429: ErrRateLimited: Too many attempts from this address
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, session.User)
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Destroys the Redis session and clears the cookie. Idempotent.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.SessionCookieName)

	if err == nil && cookie.Value != "" {
		userID := ""
		if caller := requestutil.Caller(request); caller != nil {
			userID = caller.ID
		}
		_ = handler.authService.Logout(request.Context(), cookie.Value, userID)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
Me returns the authenticated caller's account and developer profile.

GET /api/v1/auth/me

Response:
  - 200: Profile: Account plus optional developer profile
  - 401: ErrUnauthorized: No valid session
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.authService.Profile(request.Context(), caller.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
