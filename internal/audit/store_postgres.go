// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/devportal/pkg/uuidv7"
)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Record appends one entry into the portal.auditlog table.
//
// The table has no UPDATE or DELETE path anywhere in this codebase; the
// append-only property is also enforced by a revoked-privileges database
// role in production.
func (store *PostgresStore) Record(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO portal.auditlog (
			id, userid, action, resource, resourceid, details, ipaddress, useragent, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if entry.ID == "" {
		entry.ID = uuidv7.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(ctx, query,
		entry.ID,
		nullable(entry.UserID),
		entry.Action,
		entry.Resource,
		nullable(entry.ResourceID),
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_audit_store_record_failed: %w", err)
	}

	return nil
}

// List returns a page of entries matching the filter, newest first.
func (store *PostgresStore) List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {
	// Filters are optional; empty strings match everything via the OR guards.
	const countQuery = `
		SELECT COUNT(*)
		FROM portal.auditlog
		WHERE ($1 = '' OR action = $1)
		  AND ($2 = '' OR userid = $2)`

	var total int
	if err := store.pool.QueryRow(ctx, countQuery, filter.Action, filter.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_store_count_failed: %w", err)
	}

	const query = `
		SELECT id, COALESCE(userid, ''), action, resource, COALESCE(resourceid, ''),
		       details, ipaddress, useragent, createdat
		FROM portal.auditlog
		WHERE ($1 = '' OR action = $1)
		  AND ($2 = '' OR userid = $2)
		ORDER BY createdat DESC
		LIMIT $3 OFFSET $4`

	rows, err := store.pool.Query(ctx, query, filter.Action, filter.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_store_list_failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.Resource,
			&entry.ResourceID,
			&entry.Details,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_audit_store_list_scan_failed: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_store_list_rows_failed: %w", err)
	}

	return entries, total, nil
}

// nullable maps an empty string to SQL NULL for optional columns.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
