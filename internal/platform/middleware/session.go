// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/respond"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

// SessionManager is the slice of the auth service the middleware needs.
//
// # Why an interface?
//
// Defining it here decouples the middleware from the auth package and lets
// tests inject a fake credential lifecycle.
type SessionManager interface {
	// Validate returns nil when the session token is still accepted.
	Validate(ctx context.Context, user *sec.ActiveUser) error

	// Refresh rotates the token pair, returning a replacement payload.
	Refresh(ctx context.Context, user *sec.ActiveUser) (*sec.ActiveUser, error)
}

// SessionCodec decodes and re-encodes the signed session cookie.
type SessionCodec interface {
	Decode(value string) (*sec.ActiveUser, error)
	Encode(user *sec.ActiveUser) (string, error)
}

// ClientFactory builds an authenticated GitHub client from a bearer token.
type ClientFactory func(token string) *github.Client

// Session resolves the session cookie and binds the Credential Context.
//
// # Flow
//
//  1. No cookie: the request proceeds anonymously.
//  2. Decode the signed cookie; a tampered or expired cookie is cleared
//     and the request proceeds anonymously.
//  3. Validate the token with the provider. On failure, attempt one
//     transparent refresh; success re-issues the cookie with the rotated
//     pair, failure clears the cookie and downgrades to anonymous — the
//     caller must restart the OAuth flow.
//  4. Bind both ambient values for downstream code: the authenticated
//     GitHub client and the active user payload.
//
// Anonymous requests are not rejected here; the storage layer's
// Require* accessors are the authorization gate.
func Session(manager SessionManager, codec SessionCodec, newClient ClientFactory, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Cookie Lookup ──────────────────────────────────────────────
			cookie, err := request.Cookie(constants.SessionCookieName)
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Decode ─────────────────────────────────────────────────────
			activeUser, err := codec.Decode(cookie.Value)
			if err != nil {
				expireSessionCookie(writer, secureCookies)
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Validate, refresh once on failure ──────────────────────────
			if err := manager.Validate(request.Context(), activeUser); err != nil {
				refreshed, refreshErr := manager.Refresh(request.Context(), activeUser)
				if refreshErr != nil {
					ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
						"session_refresh_failed", "actor", activeUser.Actor)
					expireSessionCookie(writer, secureCookies)
					next.ServeHTTP(writer, request)
					return
				}

				activeUser = refreshed
				if signed, encodeErr := codec.Encode(activeUser); encodeErr == nil {
					reissueSessionCookie(writer, signed, secureCookies)
				}
			}

			// ── 4. Credential Context Binding ─────────────────────────────────
			ctx := ctxutil.WithClient(request.Context(), newClient(activeUser.Token))
			ctx = ctxutil.WithActiveUser(ctx, activeUser)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that carry no active user.
//
// # Usage
//
// Must be registered in the router AFTER [Session].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetActiveUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// # Cookie Helpers

func reissueSessionCookie(writer http.ResponseWriter, value string, secure bool) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(constants.SessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireSessionCookie(writer http.ResponseWriter, secure bool) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
