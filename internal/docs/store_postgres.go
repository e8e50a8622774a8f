// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// PostgreSQL implementation of the documentation page repository.
package docs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/dberr"
)

// PostgresPageRepository implements [PageRepository] using pgx.
type PostgresPageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository creates a new PostgreSQL implementation of [PageRepository].
func NewPageRepository(pool *pgxpool.Pool) *PostgresPageRepository {
	return &PostgresPageRepository{pool: pool}
}

const pageColumns = "id, COALESCE(parentid, ''), slug, title, content, position, ispublished, createdat, updatedat"

func scanPage(row pgx.Row) (*Page, error) {
	page := &Page{}
	err := row.Scan(
		&page.ID,
		&page.ParentID,
		&page.Slug,
		&page.Title,
		&page.Content,
		&page.Position,
		&page.IsPublished,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// List returns every page as flat rows, optionally published only.
func (repository *PostgresPageRepository) List(ctx context.Context, publishedOnly bool) ([]*Page, error) {
	const query = `
		SELECT ` + pageColumns + `
		FROM portal.docpage
		WHERE ($1 = FALSE OR ispublished = TRUE)
		ORDER BY position ASC, title ASC`

	rows, err := repository.pool.Query(ctx, query, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("postgres_page_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_page_repo_list_scan_failed: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_page_repo_list_rows_failed: %w", err)
	}

	return pages, nil
}

// FindByID retrieves a page by its unique ID.
func (repository *PostgresPageRepository) FindByID(ctx context.Context, id string) (*Page, error) {
	const query = `
		SELECT ` + pageColumns + `
		FROM portal.docpage
		WHERE id = $1`

	page, err := scanPage(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Page")
		}
		return nil, fmt.Errorf("postgres_page_repo_find_by_id_failed: %w", err)
	}

	return page, nil
}

// FindBySlug retrieves a page by its unique slug.
func (repository *PostgresPageRepository) FindBySlug(ctx context.Context, slug string) (*Page, error) {
	const query = `
		SELECT ` + pageColumns + `
		FROM portal.docpage
		WHERE slug = $1`

	page, err := scanPage(repository.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Page")
		}
		return nil, fmt.Errorf("postgres_page_repo_find_by_slug_failed: %w", err)
	}

	return page, nil
}

// Create persists a new page record into the portal.docpage table.
func (repository *PostgresPageRepository) Create(ctx context.Context, page *Page) error {
	const query = `
		INSERT INTO portal.docpage (
			id, parentid, slug, title, content, position, ispublished, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		page.ID,
		nullable(page.ParentID),
		page.Slug,
		page.Title,
		page.Content,
		page.Position,
		page.IsPublished,
		page.CreatedAt,
		page.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Page")
	}

	return nil
}

// Update persists changes to a page's mutable fields, including its parent.
func (repository *PostgresPageRepository) Update(ctx context.Context, page *Page) error {
	const query = `
		UPDATE portal.docpage
		SET parentid = $2, slug = $3, title = $4, content = $5,
		    position = $6, ispublished = $7, updatedat = $8
		WHERE id = $1`

	page.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(ctx, query,
		page.ID,
		nullable(page.ParentID),
		page.Slug,
		page.Title,
		page.Content,
		page.Position,
		page.IsPublished,
		page.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Page")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Page")
	}

	return nil
}

// Delete removes a page; children are re-rooted by ON DELETE SET NULL.
func (repository *PostgresPageRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM portal.docpage WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_page_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Page")
	}

	return nil
}

// nullable maps an empty string to SQL NULL for the optional parent column.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
