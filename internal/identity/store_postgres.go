// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// PostgreSQL implementations of the identity repositories.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/devportal/internal/platform/apperr"
	"github.com/meridianbank/devportal/internal/platform/dberr"
)

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = "id, email, passwordhash, fullname, role, isactive, createdat, updatedat"

// scanUser hydrates a [User] from a pgx row, converting the stored role
// string through [ParseRole] so gates downstream never see raw strings.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var rawRole string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&rawRole,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	role, err := ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	user.Role = role

	return user, nil
}

// Create persists a new account record into the portal.user table.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO portal.user (
			id, email, passwordhash, fullname, role, isactive, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

// FindByEmail retrieves an account by its unique email address.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM portal.user
		WHERE email = $1`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

// FindByID retrieves an account by its unique ID.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM portal.user
		WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

// List retrieves a page of accounts ordered by creation time (newest last).
func (repository *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	const countQuery = "SELECT COUNT(*) FROM portal.user"

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}

	const query = `
		SELECT ` + userColumns + `
		FROM portal.user
		ORDER BY createdat
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_user_repo_list_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_rows_failed: %w", err)
	}

	return users, total, nil
}

// Update persists changes to an account's mutable fields.
func (repository *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	const query = `
		UPDATE portal.user
		SET fullname = $2, role = $3, updatedat = $4
		WHERE id = $1`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.FullName,
		string(user.Role),
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}

	return nil
}

// SetActive flips the account's activation flag.
func (repository *PostgresUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = "UPDATE portal.user SET isactive = $2, updatedat = $3 WHERE id = $1"
	tag, err := repository.pool.Exec(ctx, query, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// UpdatePassword updates only the password hash for a specific account.
func (repository *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	const query = `
		UPDATE portal.user
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

// ── Developer Repository ─────────────────────────────────────────────────────

// PostgresDeveloperRepository implements the DeveloperRepository interface.
type PostgresDeveloperRepository struct {
	pool *pgxpool.Pool
}

// NewDeveloperRepository creates a new PostgreSQL implementation of DeveloperRepository.
func NewDeveloperRepository(pool *pgxpool.Pool) *PostgresDeveloperRepository {
	return &PostgresDeveloperRepository{pool: pool}
}

const developerColumns = "id, userid, email, apikey, permissions, lastactiveat, createdat, updatedat"

// scanDeveloper hydrates a [Developer], decoding the JSONB permission map.
func scanDeveloper(row pgx.Row) (*Developer, error) {
	developer := &Developer{}
	var rawPermissions []byte

	err := row.Scan(
		&developer.ID,
		&developer.UserID,
		&developer.Email,
		&developer.APIKey,
		&rawPermissions,
		&developer.LastActiveAt,
		&developer.CreatedAt,
		&developer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	developer.Permissions = map[Environment]bool{}
	if len(rawPermissions) > 0 {
		if err := json.Unmarshal(rawPermissions, &developer.Permissions); err != nil {
			return nil, fmt.Errorf("postgres_developer_repo_permissions_decode_failed: %w", err)
		}
	}

	return developer, nil
}

// Create persists a new developer profile into the portal.developer table.
func (repository *PostgresDeveloperRepository) Create(ctx context.Context, developer *Developer) error {
	const query = `
		INSERT INTO portal.developer (
			id, userid, email, apikey, permissions, lastactiveat, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if developer.CreatedAt.IsZero() {
		developer.CreatedAt = now
	}
	developer.UpdatedAt = now

	rawPermissions, err := json.Marshal(developer.Permissions)
	if err != nil {
		return fmt.Errorf("postgres_developer_repo_permissions_encode_failed: %w", err)
	}

	_, err = repository.pool.Exec(ctx, query,
		developer.ID,
		developer.UserID,
		developer.Email,
		developer.APIKey,
		rawPermissions,
		developer.LastActiveAt,
		developer.CreatedAt,
		developer.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Developer profile")
	}

	return nil
}

// FindByID retrieves a developer profile by its unique ID.
func (repository *PostgresDeveloperRepository) FindByID(ctx context.Context, id string) (*Developer, error) {
	const query = `
		SELECT ` + developerColumns + `
		FROM portal.developer
		WHERE id = $1`

	developer, err := scanDeveloper(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Developer profile")
		}
		return nil, fmt.Errorf("postgres_developer_repo_find_by_id_failed: %w", err)
	}

	return developer, nil
}

// FindByUserID retrieves the developer profile linked to a user account.
func (repository *PostgresDeveloperRepository) FindByUserID(ctx context.Context, userID string) (*Developer, error) {
	const query = `
		SELECT ` + developerColumns + `
		FROM portal.developer
		WHERE userid = $1`

	developer, err := scanDeveloper(repository.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Developer profile")
		}
		return nil, fmt.Errorf("postgres_developer_repo_find_by_user_failed: %w", err)
	}

	return developer, nil
}

// FindByAPIKey retrieves the developer whose primary key matches exactly.
func (repository *PostgresDeveloperRepository) FindByAPIKey(ctx context.Context, apiKey string) (*Developer, error) {
	const query = `
		SELECT ` + developerColumns + `
		FROM portal.developer
		WHERE apikey = $1`

	developer, err := scanDeveloper(repository.pool.QueryRow(ctx, query, apiKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Developer profile")
		}
		return nil, fmt.Errorf("postgres_developer_repo_find_by_key_failed: %w", err)
	}

	return developer, nil
}

// UpdatePermissions replaces the per-environment permission map.
func (repository *PostgresDeveloperRepository) UpdatePermissions(ctx context.Context, id string, permissions map[Environment]bool) error {
	const query = `
		UPDATE portal.developer
		SET permissions = $2, updatedat = $3
		WHERE id = $1`

	rawPermissions, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("postgres_developer_repo_permissions_encode_failed: %w", err)
	}

	_, err = repository.pool.Exec(ctx, query, id, rawPermissions, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_developer_repo_update_permissions_failed: %w", err)
	}

	return nil
}

// TouchLastActive bumps the developer's LastActiveAt timestamp.
func (repository *PostgresDeveloperRepository) TouchLastActive(ctx context.Context, id string) error {
	const query = "UPDATE portal.developer SET lastactiveat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_developer_repo_touch_failed: %w", err)
	}
	return nil
}

// ── Token Repository ─────────────────────────────────────────────────────────

// PostgresTokenRepository implements the TokenRepository interface.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new PostgreSQL implementation of TokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

const tokenColumns = "id, developerid, name, tokenhash, isactive, lastusedat, createdat"

func scanToken(row pgx.Row) (*APIToken, error) {
	token := &APIToken{}
	err := row.Scan(
		&token.ID,
		&token.DeveloperID,
		&token.Name,
		&token.TokenHash,
		&token.IsActive,
		&token.LastUsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Create persists a newly issued token record.
func (repository *PostgresTokenRepository) Create(ctx context.Context, token *APIToken) error {
	const query = `
		INSERT INTO portal.apitoken (
			id, developerid, name, tokenhash, isactive, lastusedat, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(ctx, query,
		token.ID,
		token.DeveloperID,
		token.Name,
		token.TokenHash,
		token.IsActive,
		token.LastUsedAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_token_repo_create_failed: %w", err)
	}

	return nil
}

// FindActiveByHash retrieves a non-revoked token by its digest.
//
// Revoked tokens deliberately fall into the NotFound branch so callers
// cannot distinguish a revoked credential from an invalid one.
func (repository *PostgresTokenRepository) FindActiveByHash(ctx context.Context, tokenHash string) (*APIToken, error) {
	const query = `
		SELECT ` + tokenColumns + `
		FROM portal.apitoken
		WHERE tokenhash = $1 AND isactive = TRUE`

	token, err := scanToken(repository.pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("API token")
		}
		return nil, fmt.Errorf("postgres_token_repo_find_failed: %w", err)
	}

	return token, nil
}

// ListByDeveloper retrieves all tokens for a developer, newest first.
func (repository *PostgresTokenRepository) ListByDeveloper(ctx context.Context, developerID string) ([]*APIToken, error) {
	const query = `
		SELECT ` + tokenColumns + `
		FROM portal.apitoken
		WHERE developerid = $1
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(ctx, query, developerID)
	if err != nil {
		return nil, fmt.Errorf("postgres_token_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var tokens []*APIToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_token_repo_list_scan_failed: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_token_repo_list_rows_failed: %w", err)
	}

	return tokens, nil
}

// Revoke marks a token inactive.
func (repository *PostgresTokenRepository) Revoke(ctx context.Context, id string) error {
	const query = "UPDATE portal.apitoken SET isactive = FALSE WHERE id = $1"
	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_revoke_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("API token")
	}
	return nil
}

// TouchLastUsed bumps the token's LastUsedAt timestamp.
func (repository *PostgresTokenRepository) TouchLastUsed(ctx context.Context, id string) error {
	const query = "UPDATE portal.apitoken SET lastusedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_token_repo_touch_failed: %w", err)
	}
	return nil
}
