// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	requestutil "github.com/meridianbank/devportal/internal/platform/request"
	"github.com/meridianbank/devportal/internal/platform/respond"
	"github.com/meridianbank/devportal/pkg/pagination"
)

// Handler implements the admin HTTP surface over principals. Admin only.
type Handler struct {
	service *Service
}

// NewHandler constructs a new accounts [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the admin principal endpoints.
//
// Must be mounted behind guard.Authenticate.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(guard.RequireRole(identity.RoleAdmin))

	router.Get("/users", handler.listUsers)
	router.Post("/users", handler.createUser)
	router.Put("/users/{id}/role", handler.changeRole)
	router.Put("/users/{id}/active", handler.setActive)

	router.Get("/developers/{id}", handler.getDeveloper)
	router.Put("/developers/{id}/permissions", handler.updatePermissions)
	router.Get("/developers/{id}/tokens", handler.listTokens)
	router.Post("/developers/{id}/tokens", handler.issueToken)
	router.Delete("/tokens/{id}", handler.revokeToken)

	return router
}

// # Request Payloads

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type permissionsRequest struct {
	Permissions map[string]bool `json:"permissions"`
}

type issueTokenRequest struct {
	Name string `json:"name"`
}

type createUserResponse struct {
	User      *identity.User      `json:"user"`
	Developer *identity.Developer `json:"developer,omitempty"`
}

// # Accounts

/*
GET /api/v1/admin/users.

Response:
  - 200: []User with pagination metadata
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.service.ListUsers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/admin/users.

Description: Provisions an account. Developer-role accounts also receive a
profile whose primary API key appears only in this response.

Response:
  - 201: {user, developer?}
  - 400: Validation failure
  - 409: Email already registered
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, developer, err := handler.service.CreateUser(request.Context(), CreateUserInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, createUserResponse{User: user, Developer: developer})
}

/*
PUT /api/v1/admin/users/{id}/role.

Response:
  - 200: User: Updated account
  - 400: Unknown role
  - 404: Unknown account
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.ChangeRole(request.Context(), requestutil.Param(request, "id"), input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/admin/users/{id}/active.

Description: Deactivation invalidates the account's sessions on its next
request, not at session expiry.

Response:
  - 204: Flag updated
  - 404: Unknown account
*/
func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request) {
	var input setActiveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetUserActive(request.Context(), requestutil.Param(request, "id"), input.Active); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Developers

/*
GET /api/v1/admin/developers/{id}.

Response:
  - 200: Developer profile with permissions
  - 404: Unknown profile
*/
func (handler *Handler) getDeveloper(writer http.ResponseWriter, request *http.Request) {
	developer, err := handler.service.GetDeveloper(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, developer)
}

/*
PUT /api/v1/admin/developers/{id}/permissions.

Response:
  - 200: Developer with the replaced permission map
  - 400: Unknown environment name
  - 404: Unknown profile
*/
func (handler *Handler) updatePermissions(writer http.ResponseWriter, request *http.Request) {
	var input permissionsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	developer, err := handler.service.UpdatePermissions(request.Context(), requestutil.Param(request, "id"), input.Permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, developer)
}

// # Tokens

/*
GET /api/v1/admin/developers/{id}/tokens.

Response:
  - 200: []APIToken, active and revoked, digests omitted
*/
func (handler *Handler) listTokens(writer http.ResponseWriter, request *http.Request) {
	tokens, err := handler.service.ListTokens(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tokens)
}

/*
POST /api/v1/admin/developers/{id}/tokens.

Description: The plaintext token appears only in this response; afterwards
the portal holds nothing but its digest.

Response:
  - 201: IssuedToken
  - 400: Missing name
  - 404: Unknown profile
*/
func (handler *Handler) issueToken(writer http.ResponseWriter, request *http.Request) {
	var input issueTokenRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.service.IssueToken(request.Context(), requestutil.Param(request, "id"), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, issued)
}

/*
DELETE /api/v1/admin/tokens/{id}.

Response:
  - 204: Revoked
  - 404: Unknown token
*/
func (handler *Handler) revokeToken(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.RevokeToken(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
