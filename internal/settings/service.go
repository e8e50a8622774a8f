// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridianbank/devportal/internal/audit"
	"github.com/meridianbank/devportal/internal/platform/ctxutil"
	"github.com/meridianbank/devportal/internal/platform/validate"
)

// Service orchestrates reads and audited upserts of settings.
type Service struct {
	repository Repository
	recorder   audit.Recorder
	logger     *slog.Logger
}

// NewService constructs a new settings [Service].
func NewService(repository Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		recorder:   recorder,
		logger:     logger,
	}
}

// List returns every setting.
func (service *Service) List(ctx context.Context) ([]*Setting, error) {
	return service.repository.List(ctx)
}

/*
Set upserts one setting and records the change in the audit trail.

Description: Keys follow the slug format (lowercase, digits, hyphens) so
they stay addressable in the PUT /settings/{key} route.

Parameters:
  - ctx: context.Context
  - key: string
  - value: string
  - description: string

Returns:
  - *Setting: The stored record
  - error: Validation or storage errors
*/
func (service *Service) Set(ctx context.Context, key, value, description string) (*Setting, error) {

	validator := &validate.Validator{}
	validator.Required("key", key).
		Slug("key", key).
		MaxLen("key", key, 80).
		MaxLen("value", value, 4096)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	setting := &Setting{
		Key:         key,
		Value:       value,
		Description: description,
	}

	if err := service.repository.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	entry := audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "setting",
		ResourceID: key,
		Details:    value,
	}
	if caller := ctxutil.GetIdentity(ctx); caller != nil {
		entry.UserID = caller.ID
	}
	if err := service.recorder.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("settings_service_audit_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "setting_updated", slog.String("key", key))

	return setting, nil
}
