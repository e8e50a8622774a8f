// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package constants provides centralized, immutable values for the entire portal.

It defines default timeouts, throttle settings, and cross-cutting keys that
are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Throttling: Token-bucket capacities and IP tracking TTLs.
  - Security: Cookie and credential header names.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "devportal-api"
	AppVersion = "0.3.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Global Throttle (per-IP token bucket)

const (
	// DefaultThrottleRPS is the requests per second allowed per IP before any
	// identity is known. The identity-keyed sliding-window limiter applies
	// tighter, route-specific quotas further down the chain.
	DefaultThrottleRPS = 100.0

	// DefaultThrottleBurst is the maximum burst allowed per IP.
	DefaultThrottleBurst = 150

	// ThrottleCleanupInterval is how often old IP entries are removed from memory.
	ThrottleCleanupInterval = 1 * time.Minute

	// ThrottleClientTTL is how long a client must be idle before its entry is deleted.
	ThrottleClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// SessionCookieName is the HttpOnly cookie carrying the opaque session token.
	SessionCookieName = "portal_session"

	// HeaderAPIKey carries the programmatic credential. Checked before the
	// query parameter when both are present.
	HeaderAPIKey = "X-API-Key"

	// QueryAPIKey is the lower-precedence query-string credential.
	QueryAPIKey = "api_key"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
)

// # Database Schemas

const (
	SchemaPortal = "portal"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "portal:session:"
)
