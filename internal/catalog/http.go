// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package catalog provides the HTTP interface for the API catalogue.

# Routing Strategy

  - Reads: Available to every authenticated caller (the portal explorer).
  - Mutations: Restricted to admin and editor roles, each one audited.

The handler translates between the web/JSON layer and the domain [Service].
*/
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	requestutil "github.com/meridianbank/devportal/internal/platform/request"
	"github.com/meridianbank/devportal/internal/platform/respond"
	"github.com/meridianbank/devportal/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for the catalogue.
type Handler struct {
	service *Service
}

// NewHandler constructs a new catalogue [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the catalogue endpoints.
//
// The router must be mounted behind guard.Authenticate; the mutation group
// adds its own role gate on top.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Reads for every authenticated caller
	router.Get("/categories", handler.listCategories)
	router.Get("/endpoints", handler.listEndpoints)
	router.Get("/endpoints/{id}", handler.getEndpoint)

	// Mutations for catalogue maintainers
	router.Group(func(admin chi.Router) {
		admin.Use(guard.RequireRole(identity.RoleAdmin, identity.RoleEditor))
		admin.Post("/categories", handler.createCategory)
		admin.Put("/categories/{id}", handler.updateCategory)
		admin.Delete("/categories/{id}", handler.deleteCategory)
		admin.Post("/endpoints", handler.createEndpoint)
		admin.Put("/endpoints/{id}", handler.updateEndpoint)
		admin.Delete("/endpoints/{id}", handler.deleteEndpoint)
	})

	return router
}

// # Request Payloads

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type endpointRequest struct {
	CategoryID     string   `json:"category_id"`
	Name           string   `json:"name"`
	Method         string   `json:"method"`
	Path           string   `json:"path"`
	Version        string   `json:"version"`
	Summary        string   `json:"summary"`
	RequestSchema  string   `json:"request_schema"`
	ResponseSchema string   `json:"response_schema"`
	Environments   []string `json:"environments"`
	Status         string   `json:"status"`
}

func (input endpointRequest) toInput() EndpointInput {
	return EndpointInput{
		CategoryID:     input.CategoryID,
		Name:           input.Name,
		Method:         input.Method,
		Path:           input.Path,
		Version:        input.Version,
		Summary:        input.Summary,
		RequestSchema:  input.RequestSchema,
		ResponseSchema: input.ResponseSchema,
		Environments:   input.Environments,
		Status:         input.Status,
	}
}

// # Categories

/*
GET /api/v1/catalog/categories.

Description: Returns the full explorer sidebar, ordered by position.

Response:
  - 200: []Category
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, categories)
}

/*
POST /api/v1/catalog/categories.

Description: Creates a new category. Slug derives from the name when omitted.

Response:
  - 201: Category: Created entity
  - 400: Validation failure
  - 403: Caller is not admin/editor
  - 409: Duplicate slug
*/
func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input categoryRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.CreateCategory(request.Context(), CategoryInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, category)
}

/*
PUT /api/v1/catalog/categories/{id}.

Response:
  - 200: Category: Updated entity
  - 404: Unknown category
*/
func (handler *Handler) updateCategory(writer http.ResponseWriter, request *http.Request) {
	var input categoryRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.UpdateCategory(request.Context(), requestutil.Param(request, "id"), CategoryInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, category)
}

/*
DELETE /api/v1/catalog/categories/{id}.

Response:
  - 204: Deleted (endpoints cascade)
  - 404: Unknown category
*/
func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteCategory(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Endpoints

/*
GET /api/v1/catalog/endpoints.

Request:
  - category_id: optional category filter
  - status: optional lifecycle filter (active, beta, deprecated)
  - page, limit: standard pagination

Response:
  - 200: []Endpoint with pagination metadata
*/
func (handler *Handler) listEndpoints(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := EndpointFilter{
		CategoryID: request.URL.Query().Get("category_id"),
		Status:     request.URL.Query().Get("status"),
	}

	endpoints, total, err := handler.service.ListEndpoints(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, endpoints, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/catalog/endpoints/{id}.

Response:
  - 200: Endpoint
  - 404: Unknown endpoint
*/
func (handler *Handler) getEndpoint(writer http.ResponseWriter, request *http.Request) {
	endpoint, err := handler.service.GetEndpoint(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, endpoint)
}

/*
POST /api/v1/catalog/endpoints.

Response:
  - 201: Endpoint: Created entity
  - 400: Validation failure (unknown method/status/environment)
  - 404: Referenced category does not exist
*/
func (handler *Handler) createEndpoint(writer http.ResponseWriter, request *http.Request) {
	var input endpointRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	endpoint, err := handler.service.CreateEndpoint(request.Context(), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, endpoint)
}

/*
PUT /api/v1/catalog/endpoints/{id}.

Response:
  - 200: Endpoint: Updated entity
  - 404: Unknown endpoint
*/
func (handler *Handler) updateEndpoint(writer http.ResponseWriter, request *http.Request) {
	var input endpointRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	endpoint, err := handler.service.UpdateEndpoint(request.Context(), requestutil.Param(request, "id"), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, endpoint)
}

/*
DELETE /api/v1/catalog/endpoints/{id}.

Response:
  - 204: Deleted
  - 404: Unknown endpoint
*/
func (handler *Handler) deleteEndpoint(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteEndpoint(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
