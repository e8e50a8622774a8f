// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package catalog

import (
	"context"
)

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {
	// List returns all categories ordered by Position ascending.
	// The sidebar is small by design, so there is no pagination here.
	List(ctx context.Context) ([]*Category, error)

	// FindByID returns the category with the given ID.
	//
	// Returns [apperr.NotFound] if the category does not exist.
	FindByID(ctx context.Context, id string) (*Category, error)

	// FindBySlug returns the category with the given slug.
	//
	// Returns [apperr.NotFound] if the category does not exist.
	FindBySlug(ctx context.Context, slug string) (*Category, error)

	// Create persists a new category.
	//
	// Returns a wrapped error if the slug unique constraint fails.
	Create(ctx context.Context, category *Category) error

	// Update persists changes to mutable fields.
	Update(ctx context.Context, category *Category) error

	// Delete removes a category. Endpoints referencing it are deleted by
	// the schema's ON DELETE CASCADE.
	Delete(ctx context.Context, id string) error
}

// EndpointFilter narrows the endpoint listing.
type EndpointFilter struct {
	// CategoryID restricts to one category. Empty means all.
	CategoryID string
	// Status restricts to one lifecycle stage. Empty means all.
	Status string
}

// EndpointRepository defines the data access contract for endpoints.
type EndpointRepository interface {
	// List returns a page of endpoints matching the filter, plus the total
	// count for pagination metadata.
	List(ctx context.Context, filter EndpointFilter, limit, offset int) ([]*Endpoint, int, error)

	// FindByID returns the endpoint with the given ID.
	//
	// Returns [apperr.NotFound] if the endpoint does not exist.
	FindByID(ctx context.Context, id string) (*Endpoint, error)

	// Create persists a new endpoint.
	Create(ctx context.Context, endpoint *Endpoint) error

	// Update persists changes to mutable fields.
	Update(ctx context.Context, endpoint *Endpoint) error

	// Delete removes an endpoint.
	Delete(ctx context.Context, id string) error
}
