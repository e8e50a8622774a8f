// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package audit provides the append-only audit trail of the developer portal.
//
// # Architecture
//
// Every successful authentication and every privileged mutation appends one
// entry. Entries are immutable: the pipeline never updates or deletes them.
// Authenticated traffic is logged unconditionally — this is intentional
// traffic logging (usage analytics, retention obligations), not merely
// security logging, and carries a corresponding storage cost.
package audit

import (
	"context"
	"time"
)

// # Actions

const (
	// ActionAPIAccess is appended for every session-authenticated request.
	ActionAPIAccess = "api_access"

	// ActionAPIKeyAccess is appended for every primary-API-key authentication.
	// Secondary-token authentications are audited only when the
	// AuditTokenAccess configuration knob is enabled.
	ActionAPIKeyAccess = "api_key_access"

	ActionLogin  = "login"
	ActionLogout = "logout"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entry is a single append-only audit record.
//
// UserID is empty for events that could not be attributed to a principal
// (e.g., anonymous login attempts are not audited at all; synthetic sandbox
// identities are attributed by their fixed ID).
type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder is the write-side contract consumed by the guard and the domain
// services.
//
// # Why an interface?
//
// The authenticator appends an entry on every authenticated request; tests
// inject an in-memory recorder to assert on (or suppress) that traffic.
type Recorder interface {
	// Record appends one entry. Implementations must never mutate existing
	// entries.
	Record(ctx context.Context, entry Entry) error
}

// Filter narrows the admin listing of audit entries.
type Filter struct {
	// Action restricts to one action name. Empty means all actions.
	Action string
	// UserID restricts to one principal. Empty means all principals.
	UserID string
}

// Store is the full data access contract: recording plus the admin
// read-side used by the portal's audit screen.
type Store interface {
	Recorder

	// List returns a page of entries, newest first, plus the total count
	// matching the filter.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error)
}
