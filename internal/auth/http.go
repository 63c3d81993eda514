// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/respond"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

// Handler implements the OAuth web-flow HTTP endpoints.
//
// # Flow
//
// GET /login redirects the browser to the provider's authorization page;
// the provider redirects back to GET /callback with a one-time code, which
// is exchanged for a session payload and set as a signed httpOnly cookie.
type Handler struct {
	service       *Service
	codec         *sec.SessionCodec
	secureCookies bool
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, codec *sec.SessionCodec, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		codec:         codec,
		secureCookies: secureCookies,
	}
}

// Routes returns a [chi.Router] with the auth route group.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/login", handler.login)
	router.Get("/callback", handler.callback)
	router.Get("/me", handler.me)
	router.Post("/logout", handler.logout)

	return router
}

// login redirects to the provider's authorization endpoint.
//
// GET /api/v1/auth/login?return_to=/write
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	returnTo := request.URL.Query().Get("return_to")
	authorizationURL := handler.service.AuthorizationURL(requestOrigin(request), returnTo)
	http.Redirect(writer, request, authorizationURL, http.StatusFound)
}

// callback exchanges the one-time code, installs the session cookie, and
// sends the user back to the page carried in state.
//
// GET /api/v1/auth/callback?code=...&state=...
func (handler *Handler) callback(writer http.ResponseWriter, request *http.Request) {
	code := request.URL.Query().Get("code")

	activeUser, err := handler.service.ExchangeCode(request.Context(), code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	signed, err := handler.codec.Encode(activeUser)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.setSessionCookie(writer, signed)

	target := request.URL.Query().Get("state")
	if target == "" {
		target = "/"
	}
	http.Redirect(writer, request, target, http.StatusFound)
}

// me returns the active user's public identity (never the tokens).
//
// GET /api/v1/auth/me
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	activeUser, err := ctxutil.RequireActiveUser(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"actor":  activeUser.Actor,
		"avatar": activeUser.Avatar,
		"email":  activeUser.Email,
	})
}

// logout clears the session cookie.
//
// POST /api/v1/auth/logout
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.clearSessionCookie(writer)
	respond.NoContent(writer)
}

// # Cookie Management

func (handler *Handler) setSessionCookie(writer http.ResponseWriter, value string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(constants.SessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// requestOrigin reconstructs the externally visible scheme://host of the request.
func requestOrigin(request *http.Request) string {
	scheme := "http"
	if request.TLS != nil || request.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + request.Host
}
