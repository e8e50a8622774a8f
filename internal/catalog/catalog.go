// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package catalog holds the API catalogue of the developer portal: the
// categories shown in the explorer sidebar and the endpoint metadata cards
// underneath them.
package catalog

import (
	"fmt"
	"time"

	"github.com/meridianbank/devportal/internal/identity"
)

// # Endpoint Status

// Status describes the lifecycle stage of a catalogue endpoint.
type Status string

const (
	StatusActive     Status = "active"
	StatusBeta       Status = "beta"
	StatusDeprecated Status = "deprecated"
)

// ParseStatus converts a stored status string into a [Status].
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusActive, StatusBeta, StatusDeprecated:
		return Status(value), nil
	default:
		return "", fmt.Errorf("catalog: unknown status %q", value)
	}
}

// # Entities

// Category is a named group of endpoints in the explorer sidebar.
//
// # Rules
//   - Slug is unique, derived from Name at creation when not provided.
//   - Position drives the sidebar ordering (ascending).
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Endpoint is the catalogue metadata for one bank API operation.
//
// RequestSchema and ResponseSchema carry JSON Schema documents as raw text;
// the portal renders them client-side and this service never interprets them.
type Endpoint struct {
	ID             string                 `json:"id"`
	CategoryID     string                 `json:"category_id"`
	Name           string                 `json:"name"`
	Method         string                 `json:"method"`
	Path           string                 `json:"path"`
	Version        string                 `json:"version"`
	Summary        string                 `json:"summary"`
	RequestSchema  string                 `json:"request_schema,omitempty"`
	ResponseSchema string                 `json:"response_schema,omitempty"`
	Environments   []identity.Environment `json:"environments"`
	Status         Status                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ServedIn reports whether the endpoint is published to the given
// environment. Used by the sandbox before simulating an invocation.
func (e *Endpoint) ServedIn(env identity.Environment) bool {
	for _, served := range e.Environments {
		if served == env {
			return true
		}
	}
	return false
}
