// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package settings stores the portal's operator-tunable configuration
// records: small key/value rows edited from the admin screen, as opposed to
// the process configuration loaded from the environment at boot.
package settings

import (
	"context"
	"time"
)

// Setting is one named configuration record.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository defines the data access contract for settings.
type Repository interface {
	// List returns every setting ordered by key.
	List(ctx context.Context) ([]*Setting, error)

	// Find returns the setting with the given key.
	//
	// Returns [apperr.NotFound] if the key does not exist.
	Find(ctx context.Context, key string) (*Setting, error)

	// Upsert inserts the setting or overwrites its value and description.
	Upsert(ctx context.Context, setting *Setting) error
}
