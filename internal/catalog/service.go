// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/validate"
	"github.com/meridianbank/devportal/pkg/slug"
	"github.com/meridianbank/devportal/pkg/uuidv7"
)

const (
	FieldName       = "name"
	FieldSlug       = "slug"
	FieldPosition   = "position"
	FieldCategoryID = "category_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldEnvs       = "environments"
)

// # Service Layer

// Service orchestrates the business logic for the API catalogue.
type Service struct {
	categoryRepo CategoryRepository
	endpointRepo EndpointRepository
	recorder     audit.Recorder
	logger       *slog.Logger
}

// NewService constructs a new catalogue [Service].
func NewService(categoryRepo CategoryRepository, endpointRepo EndpointRepository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		endpointRepo: endpointRepo,
		recorder:     recorder,
		logger:       logger,
	}
}

// # Category Operations

// CategoryInput holds the mutable fields of a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Position    int
}

/*
ListCategories returns the explorer sidebar, ordered by position.

Parameters:
  - ctx: context.Context

Returns:
  - []*Category: All categories
  - error: Storage errors
*/
func (service *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return service.categoryRepo.List(ctx)
}

/*
CreateCategory validates and persists a new category.

Description: The slug is derived from the name when not supplied, so admin
screens can omit it.

Parameters:
  - ctx: context.Context
  - input: CategoryInput

Returns:
  - *Category: Created entity
  - error: Validation, Conflict (duplicate slug), or storage errors
*/
func (service *Service) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {

	if input.Slug == "" {
		input.Slug = slug.From(input.Name)
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 120).
		Slug(FieldSlug, input.Slug).
		Custom(FieldPosition, input.Position < 0, "Must not be negative")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	category := &Category{
		ID:          uuidv7.New(),
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		Position:    input.Position,
	}

	if err := service.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionCreate, "category", category.ID, category.Name); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "category_created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
	)

	return category, nil
}

/*
UpdateCategory applies changes to an existing category.

Parameters:
  - ctx: context.Context
  - id: string (UUID)
  - input: CategoryInput

Returns:
  - *Category: Updated entity
  - error: NotFound, validation, or storage errors
*/
func (service *Service) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*Category, error) {

	category, err := service.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Slug == "" {
		input.Slug = slug.From(input.Name)
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 120).
		Slug(FieldSlug, input.Slug).
		Custom(FieldPosition, input.Position < 0, "Must not be negative")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	category.Name = input.Name
	category.Slug = input.Slug
	category.Description = input.Description
	category.Position = input.Position

	if err := service.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionUpdate, "category", category.ID, category.Name); err != nil {
		return nil, err
	}

	return category, nil
}

/*
DeleteCategory removes a category and, via schema cascade, its endpoints.

Parameters:
  - ctx: context.Context
  - id: string (UUID)

Returns:
  - error: NotFound or storage errors
*/
func (service *Service) DeleteCategory(ctx context.Context, id string) error {

	if err := service.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := service.trail(ctx, audit.ActionDelete, "category", id, ""); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "category_deleted", slog.String("category_id", id))

	return nil
}

// # Endpoint Operations

// EndpointInput holds the mutable fields of a catalogue endpoint.
//
// Environments and Status arrive as raw strings from the transport layer
// and are converted to their closed enums during validation.
type EndpointInput struct {
	CategoryID     string
	Name           string
	Method         string
	Path           string
	Version        string
	Summary        string
	RequestSchema  string
	ResponseSchema string
	Environments   []string
	Status         string
}

/*
ListEndpoints returns a page of catalogue endpoints.

Parameters:
  - ctx: context.Context
  - filter: EndpointFilter (category and status, both optional)
  - limit, offset: pagination

Returns:
  - []*Endpoint: Page of endpoints
  - int: Total count matching the filter
  - error: Storage errors
*/
func (service *Service) ListEndpoints(ctx context.Context, filter EndpointFilter, limit, offset int) ([]*Endpoint, int, error) {
	return service.endpointRepo.List(ctx, filter, limit, offset)
}

/*
GetEndpoint returns one endpoint by ID.

Returns:
  - *Endpoint: The hydrated entity
  - error: NotFound if absent
*/
func (service *Service) GetEndpoint(ctx context.Context, id string) (*Endpoint, error) {
	return service.endpointRepo.FindByID(ctx, id)
}

/*
CreateEndpoint validates and persists a new catalogue endpoint.

Description: Verifies the referenced category exists and converts the
environment and status strings into their closed enums before persisting.

Parameters:
  - ctx: context.Context
  - input: EndpointInput

Returns:
  - *Endpoint: Created entity
  - error: Validation, NotFound (category), or storage errors
*/
func (service *Service) CreateEndpoint(ctx context.Context, input EndpointInput) (*Endpoint, error) {

	endpoint, err := service.buildEndpoint(ctx, input)
	if err != nil {
		return nil, err
	}
	endpoint.ID = uuidv7.New()

	if err := service.endpointRepo.Create(ctx, endpoint); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionCreate, "endpoint", endpoint.ID, endpoint.Method+" "+endpoint.Path); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "endpoint_created",
		slog.String("endpoint_id", endpoint.ID),
		slog.String("method", endpoint.Method),
		slog.String("path", endpoint.Path),
	)

	return endpoint, nil
}

/*
UpdateEndpoint applies changes to an existing catalogue endpoint.

Parameters:
  - ctx: context.Context
  - id: string (UUID)
  - input: EndpointInput

Returns:
  - *Endpoint: Updated entity
  - error: NotFound, validation, or storage errors
*/
func (service *Service) UpdateEndpoint(ctx context.Context, id string, input EndpointInput) (*Endpoint, error) {

	existing, err := service.endpointRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	endpoint, err := service.buildEndpoint(ctx, input)
	if err != nil {
		return nil, err
	}
	endpoint.ID = existing.ID
	endpoint.CreatedAt = existing.CreatedAt

	if err := service.endpointRepo.Update(ctx, endpoint); err != nil {
		return nil, err
	}

	if err := service.trail(ctx, audit.ActionUpdate, "endpoint", endpoint.ID, endpoint.Method+" "+endpoint.Path); err != nil {
		return nil, err
	}

	return endpoint, nil
}

/*
DeleteEndpoint removes a catalogue endpoint.

Returns:
  - error: NotFound or storage errors
*/
func (service *Service) DeleteEndpoint(ctx context.Context, id string) error {

	if err := service.endpointRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := service.trail(ctx, audit.ActionDelete, "endpoint", id, ""); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "endpoint_deleted", slog.String("endpoint_id", id))

	return nil
}

// # Internal Helpers

// buildEndpoint validates an input and converts it into a domain entity.
func (service *Service) buildEndpoint(ctx context.Context, input EndpointInput) (*Endpoint, error) {

	if input.Status == "" {
		input.Status = string(StatusActive)
	}

	validator := &validate.Validator{}
	validator.Required(FieldCategoryID, input.CategoryID).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 160).
		Required(FieldMethod, input.Method).
		OneOf(FieldMethod, input.Method, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete).
		Required(FieldPath, input.Path).
		OneOf(FieldStatus, input.Status, string(StatusActive), string(StatusBeta), string(StatusDeprecated)).
		Custom(FieldEnvs, len(input.Environments) == 0, "At least one environment is required")

	environments := make([]identity.Environment, 0, len(input.Environments))
	for _, raw := range input.Environments {
		env, err := identity.ParseEnvironment(raw)
		if err != nil {
			validator.Custom(FieldEnvs, true, fmt.Sprintf("Unknown environment %q", raw))
			continue
		}
		environments = append(environments, env)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// The referenced category must exist; a dangling reference would make
	// the endpoint unreachable in the explorer.
	if _, err := service.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	status, err := ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	return &Endpoint{
		CategoryID:     input.CategoryID,
		Name:           input.Name,
		Method:         input.Method,
		Path:           input.Path,
		Version:        input.Version,
		Summary:        input.Summary,
		RequestSchema:  input.RequestSchema,
		ResponseSchema: input.ResponseSchema,
		Environments:   environments,
		Status:         status,
	}, nil
}

// trail appends an audit entry for a privileged mutation. Unlike the
// traffic-logging path, a failed append here fails the operation: an
// unaudited admin mutation must not succeed silently.
func (service *Service) trail(ctx context.Context, action, resource, resourceID, details string) error {
	entry := audit.Entry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
	if caller := ctxutil.GetIdentity(ctx); caller != nil {
		entry.UserID = caller.ID
	}

	if err := service.recorder.Record(ctx, entry); err != nil {
		return fmt.Errorf("catalog_service_audit_failed: %w", err)
	}
	return nil
}
