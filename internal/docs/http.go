// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package docs

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	requestutil "github.com/meridianbank/devportal/internal/platform/request"
	"github.com/meridianbank/devportal/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for the documentation tree.
type Handler struct {
	service *Service
}

// NewHandler constructs a new docs [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the documentation endpoints.
//
// Must be mounted behind guard.Authenticate. Reads are open to every
// authenticated caller; drafts are visible only to admin and editor roles,
// which also own the mutation group.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/tree", handler.tree)
	router.Get("/pages/{slug}", handler.getPage)

	router.Group(func(editors chi.Router) {
		editors.Use(guard.RequireRole(identity.RoleAdmin, identity.RoleEditor))
		editors.Post("/pages", handler.createPage)
		editors.Put("/pages/{id}", handler.updatePage)
		editors.Delete("/pages/{id}", handler.deletePage)
	})

	return router
}

// canSeeDrafts reports whether the request's identity may view unpublished pages.
func canSeeDrafts(request *http.Request) bool {
	caller := ctxutil.GetIdentity(request.Context())
	if caller == nil {
		return false
	}
	return caller.Role == identity.RoleAdmin || caller.Role == identity.RoleEditor
}

// # Request Payloads

type pageRequest struct {
	ParentID    string `json:"parent_id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Position    int    `json:"position"`
	IsPublished bool   `json:"is_published"`
}

// # Routes

/*
GET /api/v1/docs/tree.

Description: Returns the navigation sidebar as nested nodes without content.
Admin and editor callers also see unpublished pages.

Response:
  - 200: []Node
*/
func (handler *Handler) tree(writer http.ResponseWriter, request *http.Request) {
	tree, err := handler.service.Tree(request.Context(), canSeeDrafts(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tree)
}

/*
GET /api/v1/docs/pages/{slug}.

Response:
  - 200: Page with full markdown content
  - 404: Unknown slug, or unpublished page for a non-editor caller
*/
func (handler *Handler) getPage(writer http.ResponseWriter, request *http.Request) {
	page, err := handler.service.GetBySlug(request.Context(), requestutil.Param(request, "slug"), canSeeDrafts(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

/*
POST /api/v1/docs/pages.

Description: Creates a page. Slug derives from the title when omitted.

Response:
  - 201: Page: Created entity
  - 400: Validation failure
  - 403: Caller is not admin/editor
  - 404: Referenced parent does not exist
  - 409: Duplicate slug
*/
func (handler *Handler) createPage(writer http.ResponseWriter, request *http.Request) {
	var input pageRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.service.CreatePage(request.Context(), PageInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, page)
}

/*
PUT /api/v1/docs/pages/{id}.

Response:
  - 200: Page: Updated entity
  - 404: Unknown page
  - 422: Reparenting would create a cycle
*/
func (handler *Handler) updatePage(writer http.ResponseWriter, request *http.Request) {
	var input pageRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.service.UpdatePage(request.Context(), requestutil.Param(request, "id"), PageInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

/*
DELETE /api/v1/docs/pages/{id}.

Response:
  - 204: Deleted (children are re-rooted)
  - 404: Unknown page
*/
func (handler *Handler) deletePage(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeletePage(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
