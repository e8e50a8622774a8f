// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package docs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/validate"
	"github.com/meridianbank/devportal/pkg/slug"
	"github.com/meridianbank/devportal/pkg/uuidv7"
)

const (
	FieldTitle    = "title"
	FieldSlug     = "slug"
	FieldParentID = "parent_id"
	FieldPosition = "position"
)

// # Service Layer

// Service orchestrates the business logic for the documentation tree.
type Service struct {
	pageRepo PageRepository
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a new docs [Service].
func NewService(pageRepo PageRepository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		pageRepo: pageRepo,
		recorder: recorder,
		logger:   logger,
	}
}

// # Reads

/*
Tree returns the documentation navigation tree.

Parameters:
  - ctx: context.Context
  - includeUnpublished: bool (true for admin/editor callers)

Returns:
  - []*Node: Root nodes with nested children, ordered by position
  - error: Storage errors
*/
func (service *Service) Tree(ctx context.Context, includeUnpublished bool) ([]*Node, error) {
	pages, err := service.pageRepo.List(ctx, !includeUnpublished)
	if err != nil {
		return nil, err
	}
	return BuildTree(pages), nil
}

/*
GetBySlug returns one page with its full markdown content.

Description: Unpublished pages resolve only for callers allowed to see
drafts; everyone else receives the same 404 as for an unknown slug, so a
draft's existence is not observable.

Parameters:
  - ctx: context.Context
  - pageSlug: string
  - includeUnpublished: bool

Returns:
  - *Page: The hydrated page
  - error: NotFound or storage errors
*/
func (service *Service) GetBySlug(ctx context.Context, pageSlug string, includeUnpublished bool) (*Page, error) {
	page, err := service.pageRepo.FindBySlug(ctx, pageSlug)
	if err != nil {
		return nil, err
	}

	if !page.IsPublished && !includeUnpublished {
		return nil, apperr.NotFound("Page")
	}

	return page, nil
}

// # Mutations

// PageInput holds the mutable fields of a documentation page.
type PageInput struct {
	ParentID    string
	Slug        string
	Title       string
	Content     string
	Position    int
	IsPublished bool
}

/*
CreatePage validates and persists a new documentation page.

Parameters:
  - ctx: context.Context
  - input: PageInput

Returns:
  - *Page: Created entity
  - error: Validation, NotFound (parent), Conflict (slug), or storage errors
*/
func (service *Service) CreatePage(ctx context.Context, input PageInput) (*Page, error) {

	page, err := service.buildPage(ctx, "", input)
	if err != nil {
		return nil, err
	}
	page.ID = uuidv7.New()

	if err := service.pageRepo.Create(ctx, page); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionCreate, page.ID, page.Title); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "docpage_created",
		slog.String("page_id", page.ID),
		slog.String("slug", page.Slug),
	)

	return page, nil
}

/*
UpdatePage applies changes to an existing page, including reparenting.

Description: Moving a page under one of its own descendants would detach
the subtree into an unreachable cycle, so ancestry is checked first.

Parameters:
  - ctx: context.Context
  - id: string (UUID)
  - input: PageInput

Returns:
  - *Page: Updated entity
  - error: NotFound, validation, or storage errors
*/
func (service *Service) UpdatePage(ctx context.Context, id string, input PageInput) (*Page, error) {

	existing, err := service.pageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	page, err := service.buildPage(ctx, id, input)
	if err != nil {
		return nil, err
	}
	page.ID = existing.ID
	page.CreatedAt = existing.CreatedAt

	if err := service.pageRepo.Update(ctx, page); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionUpdate, page.ID, page.Title); err != nil {
		return nil, err
	}

	return page, nil
}

/*
DeletePage removes a page. Its children are re-rooted, never deleted.

Returns:
  - error: NotFound or storage errors
*/
func (service *Service) DeletePage(ctx context.Context, id string) error {

	if err := service.pageRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := service.trail(ctx, audit.ActionDelete, id, ""); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "docpage_deleted", slog.String("page_id", id))

	return nil
}

// # Internal Helpers

// buildPage validates an input and converts it into a domain entity.
// pageID is non-empty on updates and enables the cycle check.
func (service *Service) buildPage(ctx context.Context, pageID string, input PageInput) (*Page, error) {

	if input.Slug == "" {
		input.Slug = slug.From(input.Title)
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, 160).
		Slug(FieldSlug, input.Slug).
		Custom(FieldPosition, input.Position < 0, "Must not be negative").
		Custom(FieldParentID, pageID != "" && input.ParentID == pageID, "A page cannot be its own parent")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if input.ParentID != "" {
		if _, err := service.pageRepo.FindByID(ctx, input.ParentID); err != nil {
			return nil, err
		}
		if pageID != "" {
			if err := service.ensureNotDescendant(ctx, pageID, input.ParentID); err != nil {
				return nil, err
			}
		}
	}

	return &Page{
		ParentID:    input.ParentID,
		Slug:        input.Slug,
		Title:       input.Title,
		Content:     input.Content,
		Position:    input.Position,
		IsPublished: input.IsPublished,
	}, nil
}

// ensureNotDescendant walks up from candidate to the root and fails if it
// passes through pageID, which would create a cycle.
func (service *Service) ensureNotDescendant(ctx context.Context, pageID, candidate string) error {
	for current := candidate; current != ""; {
		if current == pageID {
			return apperr.Unprocessable("Cannot move a page under its own descendant")
		}
		parent, err := service.pageRepo.FindByID(ctx, current)
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

// trail appends an audit entry for a privileged mutation; a failed append
// fails the operation.
func (service *Service) trail(ctx context.Context, action, resourceID, details string) error {
	entry := audit.Entry{
		Action:     action,
		Resource:   "docpage",
		ResourceID: resourceID,
		Details:    details,
	}
	if caller := ctxutil.GetIdentity(ctx); caller != nil {
		entry.UserID = caller.ID
	}

	if err := service.recorder.Record(ctx, entry); err != nil {
		return fmt.Errorf("docs_service_audit_failed: %w", err)
	}
	return nil
}
