// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

package guard

import "github.com/meridianbank/devportal/internal/identity"

// Reserved development keys. These are intentionally well-known literals so
// that local front-end work and integration suites can exercise the sandbox
// without provisioning a developer profile first.
const (
	testKeyPrimary   = "sandbox_test_key"
	testKeySecondary = "demo_sandbox_key"
)

// TestKeyProvider mints the synthetic sandbox identity for the reserved
// development API keys.
//
// # Scope
//
// The synthetic identity is a deliberate development convenience, narrowly
// boxed in three ways:
//
//  1. Only the two reserved literals resolve, nothing configurable.
//  2. The minted identity passes the environment gate for sandbox ONLY —
//     the gate short-circuits it before any permission lookup and rejects
//     every other environment.
//  3. The provider is disabled entirely when the portal runs in production,
//     so the literals are dead strings there.
type TestKeyProvider struct {
	enabled bool
}

// NewTestKeyProvider constructs the provider. Pass enabled=false (forced by
// the config layer whenever ENVIRONMENT=production) to disable the reserved
// keys entirely.
func NewTestKeyProvider(enabled bool) *TestKeyProvider {
	return &TestKeyProvider{enabled: enabled}
}

// Identity returns the synthetic sandbox identity when key is one of the
// reserved development keys and the provider is enabled.
//
// No repository is consulted: the identity exists only in memory and its
// fixed ID never collides with stored accounts (UUID-keyed).
func (p *TestKeyProvider) Identity(key string) (*identity.Identity, bool) {
	if p == nil || !p.enabled {
		return nil, false
	}

	if key != testKeyPrimary && key != testKeySecondary {
		return nil, false
	}

	return &identity.Identity{
		ID:    identity.SandboxUserID,
		Email: "sandbox@meridianbank.io",
		Role:  identity.RoleDeveloper,
	}, true
}
