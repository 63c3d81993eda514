// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Client verifies that the authenticated GitHub client can be
bound and retrieved, and that Require fails on an anonymous context.
*/
func TestContext_Client(t *testing.T) {
	ctx := context.Background()

	// 1. Anonymous context has no client
	assert.Nil(t, ctxutil.GetClient(ctx))

	_, err := ctxutil.RequireClient(ctx)
	require.Error(t, err)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "UNAUTHORIZED", appError.Code)

	// 2. Inject and retrieve
	client := github.NewClient(github.Options{Owner: "octocat", Repo: "blog"}, "gho_token")
	ctx = ctxutil.WithClient(ctx, client)

	assert.Same(t, client, ctxutil.GetClient(ctx))

	required, err := ctxutil.RequireClient(ctx)
	require.NoError(t, err)
	assert.Same(t, client, required)
}

/*
TestContext_ActiveUser verifies that the session payload can be bound and
retrieved, and that Require fails on an anonymous context.
*/
func TestContext_ActiveUser(t *testing.T) {
	ctx := context.Background()

	// 1. Anonymous context has no user
	assert.Nil(t, ctxutil.GetActiveUser(ctx))

	_, err := ctxutil.RequireActiveUser(ctx)
	require.Error(t, err)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "UNAUTHORIZED", appError.Code)

	// 2. Inject and retrieve
	user := &sec.ActiveUser{Token: "gho_token", Actor: "octocat"}
	ctx = ctxutil.WithActiveUser(ctx, user)

	retrieved := ctxutil.GetActiveUser(ctx)
	require.NotNil(t, retrieved)
	assert.Equal(t, "octocat", retrieved.Actor)

	required, err := ctxutil.RequireActiveUser(ctx)
	require.NoError(t, err)
	assert.Same(t, user, required)
}
