// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
//
// # Credential Context
//
// Two independent ambient values travel with every authenticated request:
// the GitHub client built from the session's bearer token, and the active
// user payload. They are bound once by the session middleware and read by
// the storage and service layers through the Require* accessors, which fail
// with Unauthorized when no value is bound. That failure is the system's
// primary authorization gate, not a decorative check.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/ctxkey"
	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Credential Context — GitHub Client

// WithClient returns a new context with the authenticated GitHub client attached.
func WithClient(ctx context.Context, client *github.Client) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClient, client)
}

// GetClient retrieves the [*github.Client] from the context, or nil when
// no credential scope is active.
func GetClient(ctx context.Context) *github.Client {
	client, ok := ctx.Value(ctxkey.KeyClient).(*github.Client)
	if !ok {
		return nil
	}
	return client
}

// RequireClient retrieves the [*github.Client] from the context and fails
// with [apperr.Unauthorized] when no credential scope is active.
func RequireClient(ctx context.Context) (*github.Client, error) {
	client := GetClient(ctx)
	if client == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return client, nil
}

// # Credential Context — Active User

// WithActiveUser returns a new context with the session payload attached.
func WithActiveUser(ctx context.Context, user *sec.ActiveUser) context.Context {
	return context.WithValue(ctx, ctxkey.KeyActiveUser, user)
}

// GetActiveUser retrieves the [*sec.ActiveUser] from the context, or nil
// when the request is anonymous.
func GetActiveUser(ctx context.Context) *sec.ActiveUser {
	user, ok := ctx.Value(ctxkey.KeyActiveUser).(*sec.ActiveUser)
	if !ok {
		return nil
	}
	return user
}

// RequireActiveUser retrieves the [*sec.ActiveUser] from the context and
// fails with [apperr.Unauthorized] when the request is anonymous.
func RequireActiveUser(ctx context.Context) (*sec.ActiveUser, error) {
	user := GetActiveUser(ctx)
	if user == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return user, nil
}
