// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// PostgreSQL implementations of the catalogue repositories.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/devportal/internal/identity"
	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/dberr"
	"github.com/meridianbank/devportal/pkg/slice"
)

// # Category Repository

// PostgresCategoryRepository implements [CategoryRepository] using pgx.
type PostgresCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new PostgreSQL implementation of [CategoryRepository].
func NewCategoryRepository(pool *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{pool: pool}
}

const categoryColumns = "id, name, slug, description, position, createdat, updatedat"

func scanCategory(row pgx.Row) (*Category, error) {
	category := &Category{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.Position,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// List returns all categories ordered by their sidebar position.
func (repository *PostgresCategoryRepository) List(ctx context.Context) ([]*Category, error) {
	const query = `
		SELECT ` + categoryColumns + `
		FROM portal.category
		ORDER BY position ASC, name ASC`

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_category_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_category_repo_list_scan_failed: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_category_repo_list_rows_failed: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by its unique ID.
func (repository *PostgresCategoryRepository) FindByID(ctx context.Context, id string) (*Category, error) {
	const query = `
		SELECT ` + categoryColumns + `
		FROM portal.category
		WHERE id = $1`

	category, err := scanCategory(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, fmt.Errorf("postgres_category_repo_find_by_id_failed: %w", err)
	}

	return category, nil
}

// FindBySlug retrieves a category by its unique slug.
func (repository *PostgresCategoryRepository) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	const query = `
		SELECT ` + categoryColumns + `
		FROM portal.category
		WHERE slug = $1`

	category, err := scanCategory(repository.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, fmt.Errorf("postgres_category_repo_find_by_slug_failed: %w", err)
	}

	return category, nil
}

// Create persists a new category record into the portal.category table.
func (repository *PostgresCategoryRepository) Create(ctx context.Context, category *Category) error {
	const query = `
		INSERT INTO portal.category (
			id, name, slug, description, position, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.Position,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Category")
	}

	return nil
}

// Update persists changes to a category's mutable fields.
func (repository *PostgresCategoryRepository) Update(ctx context.Context, category *Category) error {
	const query = `
		UPDATE portal.category
		SET name = $2, slug = $3, description = $4, position = $5, updatedat = $6
		WHERE id = $1`

	category.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.Position,
		category.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category")
	}

	return nil
}

// Delete removes a category. Dependent endpoints cascade at the schema level.
func (repository *PostgresCategoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM portal.category WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_category_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category")
	}

	return nil
}

// # Endpoint Repository

// PostgresEndpointRepository implements [EndpointRepository] using pgx.
type PostgresEndpointRepository struct {
	pool *pgxpool.Pool
}

// NewEndpointRepository creates a new PostgreSQL implementation of [EndpointRepository].
func NewEndpointRepository(pool *pgxpool.Pool) *PostgresEndpointRepository {
	return &PostgresEndpointRepository{pool: pool}
}

const endpointColumns = `id, categoryid, name, method, path, version, summary,
	       COALESCE(requestschema, ''), COALESCE(responseschema, ''),
	       environments, status, createdat, updatedat`

// scanEndpoint hydrates an [Endpoint], converting the stored environment
// array and status string through their parse functions so the rest of the
// codebase never sees raw strings.
func scanEndpoint(row pgx.Row) (*Endpoint, error) {
	endpoint := &Endpoint{}
	var rawEnvironments []string
	var rawStatus string

	err := row.Scan(
		&endpoint.ID,
		&endpoint.CategoryID,
		&endpoint.Name,
		&endpoint.Method,
		&endpoint.Path,
		&endpoint.Version,
		&endpoint.Summary,
		&endpoint.RequestSchema,
		&endpoint.ResponseSchema,
		&rawEnvironments,
		&rawStatus,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, raw := range rawEnvironments {
		env, err := identity.ParseEnvironment(raw)
		if err != nil {
			return nil, err
		}
		endpoint.Environments = append(endpoint.Environments, env)
	}

	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	endpoint.Status = status

	return endpoint, nil
}

// environmentStrings converts the typed environment slice back to the
// text[] representation stored in PostgreSQL.
func environmentStrings(environments []identity.Environment) []string {
	return slice.Map(environments, func(env identity.Environment) string { return string(env) })
}

// List returns a page of endpoints matching the filter, plus the total count.
func (repository *PostgresEndpointRepository) List(ctx context.Context, filter EndpointFilter, limit, offset int) ([]*Endpoint, int, error) {
	// Filters are optional; empty strings match everything via the OR guards.
	const countQuery = `
		SELECT COUNT(*)
		FROM portal.endpoint
		WHERE ($1 = '' OR categoryid = $1)
		  AND ($2 = '' OR status = $2)`

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery, filter.CategoryID, filter.Status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_endpoint_repo_count_failed: %w", err)
	}

	const query = `
		SELECT ` + endpointColumns + `
		FROM portal.endpoint
		WHERE ($1 = '' OR categoryid = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY name ASC
		LIMIT $3 OFFSET $4`

	rows, err := repository.pool.Query(ctx, query, filter.CategoryID, filter.Status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_endpoint_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var endpoints []*Endpoint
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_endpoint_repo_list_scan_failed: %w", err)
		}
		endpoints = append(endpoints, endpoint)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_endpoint_repo_list_rows_failed: %w", err)
	}

	return endpoints, total, nil
}

// FindByID retrieves an endpoint by its unique ID.
func (repository *PostgresEndpointRepository) FindByID(ctx context.Context, id string) (*Endpoint, error) {
	const query = `
		SELECT ` + endpointColumns + `
		FROM portal.endpoint
		WHERE id = $1`

	endpoint, err := scanEndpoint(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Endpoint")
		}
		return nil, fmt.Errorf("postgres_endpoint_repo_find_by_id_failed: %w", err)
	}

	return endpoint, nil
}

// Create persists a new endpoint record into the portal.endpoint table.
func (repository *PostgresEndpointRepository) Create(ctx context.Context, endpoint *Endpoint) error {
	const query = `
		INSERT INTO portal.endpoint (
			id, categoryid, name, method, path, version, summary,
			requestschema, responseschema, environments, status, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	now := time.Now()
	if endpoint.CreatedAt.IsZero() {
		endpoint.CreatedAt = now
	}
	endpoint.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		endpoint.ID,
		endpoint.CategoryID,
		endpoint.Name,
		endpoint.Method,
		endpoint.Path,
		endpoint.Version,
		endpoint.Summary,
		endpoint.RequestSchema,
		endpoint.ResponseSchema,
		environmentStrings(endpoint.Environments),
		string(endpoint.Status),
		endpoint.CreatedAt,
		endpoint.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Endpoint")
	}

	return nil
}

// Update persists changes to an endpoint's mutable fields.
func (repository *PostgresEndpointRepository) Update(ctx context.Context, endpoint *Endpoint) error {
	const query = `
		UPDATE portal.endpoint
		SET categoryid = $2, name = $3, method = $4, path = $5, version = $6,
		    summary = $7, requestschema = $8, responseschema = $9,
		    environments = $10, status = $11, updatedat = $12
		WHERE id = $1`

	endpoint.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(ctx, query,
		endpoint.ID,
		endpoint.CategoryID,
		endpoint.Name,
		endpoint.Method,
		endpoint.Path,
		endpoint.Version,
		endpoint.Summary,
		endpoint.RequestSchema,
		endpoint.ResponseSchema,
		environmentStrings(endpoint.Environments),
		string(endpoint.Status),
		endpoint.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Endpoint")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Endpoint")
	}

	return nil
}

// Delete removes an endpoint.
func (repository *PostgresEndpointRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM portal.endpoint WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_endpoint_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Endpoint")
	}

	return nil
}
