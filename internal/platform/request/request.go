// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter (UUID/Slug) from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Caller extracts the authenticated identity from the request context.

Returns nil if the request is not authenticated.
*/
func Caller(request *http.Request) *identity.Identity {
	return ctxutil.GetIdentity(request.Context())
}

/*
RequiredCaller ensures the request is authenticated and returns the identity.

Returns:
  - *identity.Identity: The authenticated caller
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredCaller(request *http.Request) (*identity.Identity, error) {

	// Get the caller identity
	caller := ctxutil.GetIdentity(request.Context())

	// If the request is not authenticated, return an error
	if caller == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return caller, nil
}

/*
RequiredUserID returns the user ID of the currently authenticated caller.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {

	// Get the caller identity
	caller, err := RequiredCaller(request)

	// If the request is not authenticated, return an error
	if err != nil {
		return "", err
	}

	return caller.ID, nil
}
