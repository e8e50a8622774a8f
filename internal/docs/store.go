// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package docs

import "context"

// PageRepository defines the data access contract for documentation pages.
type PageRepository interface {
	// List returns every page as flat rows; the service assembles the tree.
	// When publishedOnly is true, unpublished pages are excluded.
	List(ctx context.Context, publishedOnly bool) ([]*Page, error)

	// FindByID returns the page with the given ID.
	//
	// Returns [apperr.NotFound] if the page does not exist.
	FindByID(ctx context.Context, id string) (*Page, error)

	// FindBySlug returns the page with the given slug.
	//
	// Returns [apperr.NotFound] if the page does not exist.
	FindBySlug(ctx context.Context, slug string) (*Page, error)

	// Create persists a new page.
	//
	// Returns a wrapped error if the slug unique constraint fails.
	Create(ctx context.Context, page *Page) error

	// Update persists changes to mutable fields, including reparenting.
	Update(ctx context.Context, page *Page) error

	// Delete removes a page. Children are re-rooted by the schema's
	// ON DELETE SET NULL, never deleted in cascade.
	Delete(ctx context.Context, id string) error
}
