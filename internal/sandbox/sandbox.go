// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package sandbox implements the request playground: authenticated callers
// invoke catalogue endpoints against a simulated backend and receive a
// synthetic response envelope. No real banking system is ever touched.
package sandbox

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/meridianbank/devportal/internal/catalog"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/validate"
	"github.com/meridianbank/devportal/pkg/uuidv7"
)

// EndpointFinder is the catalogue lookup the playground needs.
type EndpointFinder interface {
	FindByID(ctx context.Context, id string) (*catalog.Endpoint, error)
}

// InvokeInput is the playground request body.
type InvokeInput struct {
	EndpointID string          `json:"endpoint_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Envelope is the simulated response returned to the caller.
type Envelope struct {
	CorrelationID string               `json:"correlation_id"`
	Environment   identity.Environment `json:"environment"`
	Endpoint      InvokedEndpoint      `json:"endpoint"`
	Echo          json.RawMessage      `json:"echo,omitempty"`
	LatencyMS     int                  `json:"latency_ms"`
	SimulatedAt   time.Time            `json:"simulated_at"`
}

// InvokedEndpoint summarizes the catalogue entry that was exercised.
type InvokedEndpoint struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
}

// Service resolves playground invocations against the catalogue.
type Service struct {
	endpoints EndpointFinder

	// latency produces the canned round-trip figure; overridable in tests.
	latency func() int
}

// NewService constructs a new sandbox [Service].
func NewService(endpoints EndpointFinder) *Service {
	return &Service{
		endpoints: endpoints,
		latency:   func() int { return 30 + rand.IntN(120) },
	}
}

/*
Invoke simulates a call to one catalogue endpoint.

Description: The endpoint must exist and be served in the requested
environment. Deprecated endpoints still resolve — the playground is exactly
where integrators verify migration paths.

Parameters:
  - ctx: context.Context
  - env: identity.Environment (already authorized by the environment gate)
  - input: InvokeInput

Returns:
  - *Envelope: Simulated response with echoed payload and correlation ID
  - error: Validation, NotFound, or Unprocessable errors
*/
func (service *Service) Invoke(ctx context.Context, env identity.Environment, input InvokeInput) (*Envelope, error) {

	validator := &validate.Validator{}
	validator.Required("endpoint_id", input.EndpointID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	endpoint, err := service.endpoints.FindByID(ctx, input.EndpointID)
	if err != nil {
		return nil, err
	}

	if !endpoint.ServedIn(env) {
		return nil, apperr.Unprocessable("Endpoint is not served in this environment")
	}

	return &Envelope{
		CorrelationID: uuidv7.New(),
		Environment:   env,
		Endpoint: InvokedEndpoint{
			ID:      endpoint.ID,
			Method:  endpoint.Method,
			Path:    endpoint.Path,
			Version: endpoint.Version,
		},
		Echo:        input.Payload,
		LatencyMS:   service.latency(),
		SimulatedAt: time.Now(),
	}, nil
}
