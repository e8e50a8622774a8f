// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package sandbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/devportal/internal/catalog"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/sandbox"
)

type fakeEndpoints struct {
	endpoints map[string]*catalog.Endpoint
}

func (f *fakeEndpoints) FindByID(_ context.Context, id string) (*catalog.Endpoint, error) {
	endpoint, ok := f.endpoints[id]
	if !ok {
		return nil, apperr.NotFound("Endpoint")
	}
	return endpoint, nil
}

func newService() (*sandbox.Service, *fakeEndpoints) {
	endpoints := &fakeEndpoints{endpoints: map[string]*catalog.Endpoint{
		"ep-1": {
			ID:           "ep-1",
			Method:       http.MethodPost,
			Path:         "/payments",
			Version:      "v2",
			Environments: []identity.Environment{identity.EnvSandbox, identity.EnvUAT},
			Status:       catalog.StatusActive,
		},
	}}
	return sandbox.NewService(endpoints), endpoints
}

/*
TestInvoke verifies the happy path: payload echoed, correlation ID
generated, endpoint summary carried.
*/
func TestInvoke(t *testing.T) {
	service, _ := newService()
	payload := json.RawMessage(`{"amount":100,"currency":"EUR"}`)

	envelope, err := service.Invoke(context.Background(), identity.EnvSandbox, sandbox.InvokeInput{
		EndpointID: "ep-1",
		Payload:    payload,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, envelope.CorrelationID)
	assert.Equal(t, identity.EnvSandbox, envelope.Environment)
	assert.Equal(t, "ep-1", envelope.Endpoint.ID)
	assert.Equal(t, "/payments", envelope.Endpoint.Path)
	assert.JSONEq(t, string(payload), string(envelope.Echo))
	assert.Positive(t, envelope.LatencyMS)
	assert.False(t, envelope.SimulatedAt.IsZero())
}

/*
TestInvoke_WrongEnvironment verifies an endpoint not served in the target
environment is rejected with 422 even though it exists.
*/
func TestInvoke_WrongEnvironment(t *testing.T) {
	service, _ := newService()

	_, err := service.Invoke(context.Background(), identity.EnvProduction, sandbox.InvokeInput{
		EndpointID: "ep-1",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnprocessableEntity, appError.HTTPStatus)
}

/*
TestInvoke_UnknownEndpoint verifies unknown catalogue IDs surface as 404.
*/
func TestInvoke_UnknownEndpoint(t *testing.T) {
	service, _ := newService()

	_, err := service.Invoke(context.Background(), identity.EnvSandbox, sandbox.InvokeInput{
		EndpointID: "ghost",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

/*
TestInvoke_MissingEndpointID verifies an empty endpoint_id fails validation
before any lookup.
*/
func TestInvoke_MissingEndpointID(t *testing.T) {
	service, _ := newService()

	_, err := service.Invoke(context.Background(), identity.EnvSandbox, sandbox.InvokeInput{})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
}
