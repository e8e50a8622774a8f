// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/platform/respond"
	"github.com/meridianbank/devportal/pkg/pagination"
)

// Handler implements the admin read-side of the audit trail.
//
// # Security
//
// Routes returned here must be mounted behind guard.Authenticate and
// guard.RequireRole(admin) — the handler itself performs no authorization.
type Handler struct {
	store Store
}

// NewHandler constructs a new audit [Handler].
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns a [chi.Router] with the audit endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)

	return router
}

// list handles GET /api/v1/admin/audit requests.
//
// # Query Parameters
//   - action: optional action filter (e.g. "api_access").
//   - user_id: optional principal filter.
//   - page, limit: standard pagination.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := Filter{
		Action: request.URL.Query().Get("action"),
		UserID: request.URL.Query().Get("user_id"),
	}

	entries, total, err := handler.store.List(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(params.Page, params.Limit, total))
}
