// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/devportal/internal/platform/apperr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of [Repository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns every setting ordered by key.
func (repository *PostgresRepository) List(ctx context.Context) ([]*Setting, error) {
	const query = `
		SELECT key, value, description, updatedat
		FROM portal.setting
		ORDER BY key ASC`

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_settings_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var settings []*Setting
	for rows.Next() {
		setting := &Setting{}
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.Description, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres_settings_repo_list_scan_failed: %w", err)
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_settings_repo_list_rows_failed: %w", err)
	}

	return settings, nil
}

// Find retrieves a setting by its key.
func (repository *PostgresRepository) Find(ctx context.Context, key string) (*Setting, error) {
	const query = `
		SELECT key, value, description, updatedat
		FROM portal.setting
		WHERE key = $1`

	setting := &Setting{}
	err := repository.pool.QueryRow(ctx, query, key).
		Scan(&setting.Key, &setting.Value, &setting.Description, &setting.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Setting")
		}
		return nil, fmt.Errorf("postgres_settings_repo_find_failed: %w", err)
	}

	return setting, nil
}

// Upsert inserts the setting or overwrites its value and description.
func (repository *PostgresRepository) Upsert(ctx context.Context, setting *Setting) error {
	const query = `
		INSERT INTO portal.setting (key, value, description, updatedat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = EXCLUDED.description,
		    updatedat = EXCLUDED.updatedat`

	setting.UpdatedAt = time.Now()

	_, err := repository.pool.Exec(ctx, query,
		setting.Key,
		setting.Value,
		setting.Description,
		setting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_settings_repo_upsert_failed: %w", err)
	}

	return nil
}
