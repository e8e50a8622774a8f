// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	requestutil "github.com/meridianbank/devportal/internal/platform/request"
	"github.com/meridianbank/devportal/internal/platform/respond"
)

// Handler implements the HTTP layer for settings. Admin only.
type Handler struct {
	service *Service
}

// NewHandler constructs a new settings [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the settings endpoints.
//
// Must be mounted behind guard.Authenticate.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(guard.RequireRole(identity.RoleAdmin))

	router.Get("/", handler.list)
	router.Put("/{key}", handler.set)

	return router
}

type settingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

/*
GET /api/v1/settings.

Response:
  - 200: []Setting ordered by key
  - 403: Caller is not admin
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	settings, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, settings)
}

/*
PUT /api/v1/settings/{key}.

Description: Creates or overwrites the setting. The change is audited with
the acting admin.

Response:
  - 200: Setting: Stored record
  - 400: Invalid key or oversized value
  - 403: Caller is not admin
*/
func (handler *Handler) set(writer http.ResponseWriter, request *http.Request) {
	var input settingRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	setting, err := handler.service.Set(request.Context(), requestutil.Param(request, "key"), input.Value, input.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, setting)
}
