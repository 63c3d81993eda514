// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Session cookie configuration.
  - Repository Layout: Fixed file path conventions inside the content repository.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "gitpress-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// Generous because one article save is up to seven sequential GitHub calls.
	GlobalRequestTimeout = 60 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// SessionCookieName is the cookie that carries the signed session payload.
	SessionCookieName = "session"

	// SessionCookieTTL outlives the GitHub access token on purpose: the cookie
	// also carries the refresh token, which stays usable long after the access
	// token expires.
	SessionCookieTTL = 365 * 24 * time.Hour

	// OAuthCallbackPath is the fixed redirect path registered with the OAuth app.
	OAuthCallbackPath = "/api/v1/auth/callback"
)

// # Repository Layout

const (
	// MetaFilePath is the single metadata index file for all articles.
	MetaFilePath = "public/meta.json"

	// BlogDirPath is the directory holding one subdirectory per article slug.
	BlogDirPath = "public/blog"

	// ArticleFileName is the fixed file name of an article body inside its slug directory.
	ArticleFileName = "index.md"

	// MediaDirPath is the directory holding uploaded media files.
	MediaDirPath = "public/media"
)

// # Upload Limits

const (
	// MaxUploadBytes is the maximum accepted media upload size (10 MB).
	MaxUploadBytes = 10 * 1024 * 1024
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
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)
