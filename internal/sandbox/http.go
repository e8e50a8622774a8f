// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package sandbox

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/guard"
	"github.com/meridianbank/devportal/internal/identity"
	requestutil "github.com/meridianbank/devportal/internal/platform/request"
	"github.com/meridianbank/devportal/internal/platform/respond"
)

// Handler implements the HTTP layer for the playground.
type Handler struct {
	service *Service
}

// NewHandler constructs a new sandbox [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the playground endpoints.
//
// Must be mounted behind guard.AuthenticateAny. Each environment gets its
// own subtree so the environment gate binds at mount time rather than per
// request; the limiter sits after the gate, so denied callers never consume
// quota.
func (handler *Handler) Routes(g *guard.Guard, limiter *guard.Limiter) chi.Router {
	router := chi.NewRouter()

	for _, env := range []identity.Environment{identity.EnvSandbox, identity.EnvUAT, identity.EnvProduction} {
		router.Route("/"+string(env), func(scoped chi.Router) {
			scoped.Use(g.RequireEnvironment(env))
			scoped.Use(guard.RateLimit(limiter))
			scoped.Post("/invoke", handler.invoke(env))
		})
	}

	return router
}

/*
POST /api/v1/sandbox/{environment}/invoke.

Description: Simulates one catalogue call in the named environment. The
environment gate has already verified the caller's access.

Request:
  - endpoint_id: catalogue endpoint UUID
  - payload: arbitrary JSON, echoed back

Response:
  - 200: Envelope with correlation ID and canned latency
  - 400: Missing endpoint_id
  - 403: Environment access denied (gate)
  - 404: Unknown endpoint
  - 422: Endpoint not served in this environment
*/
func (handler *Handler) invoke(env identity.Environment) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var input InvokeInput
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}

		envelope, err := handler.service.Invoke(request.Context(), env, input)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, envelope)
	}
}
