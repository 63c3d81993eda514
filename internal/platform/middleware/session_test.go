// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/middleware"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

// fakeManager scripts the credential lifecycle for one request.
type fakeManager struct {
	validateErr error
	refreshed   *sec.ActiveUser
	refreshErr  error

	validated int
	refreshes int
}

func (f *fakeManager) Validate(ctx context.Context, user *sec.ActiveUser) error {
	f.validated++
	return f.validateErr
}

func (f *fakeManager) Refresh(ctx context.Context, user *sec.ActiveUser) (*sec.ActiveUser, error) {
	f.refreshes++
	return f.refreshed, f.refreshErr
}

func newCodec() *sec.SessionCodec {
	return sec.NewSessionCodec("test-secret-at-least-32-bytes-long!", "gitpress-test", time.Hour)
}

func clientFactory(token string) *github.Client {
	return github.NewClient(github.Options{Owner: "octocat", Repo: "blog"}, token)
}

// run sends one request through the middleware and captures what the inner
// handler observed in its context.
func run(t *testing.T, manager *fakeManager, cookie *http.Cookie) (*httptest.ResponseRecorder, *sec.ActiveUser, bool) {
	t.Helper()

	var seenUser *sec.ActiveUser
	var seenClient bool
	inner := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seenUser = ctxutil.GetActiveUser(request.Context())
		seenClient = ctxutil.GetClient(request.Context()) != nil
		writer.WriteHeader(http.StatusOK)
	})

	handler := middleware.Session(manager, newCodec(), clientFactory, false)(inner)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	if cookie != nil {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder, seenUser, seenClient
}

func sessionCookie(t *testing.T, user *sec.ActiveUser) *http.Cookie {
	t.Helper()
	signed, err := newCodec().Encode(user)
	require.NoError(t, err)
	return &http.Cookie{Name: constants.SessionCookieName, Value: signed}
}

/*
TestSession_NoCookie verifies that cookie-less requests proceed anonymously.
*/
func TestSession_NoCookie(t *testing.T) {
	manager := &fakeManager{}

	recorder, seenUser, seenClient := run(t, manager, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, seenUser)
	assert.False(t, seenClient)
	assert.Zero(t, manager.validated)
}

/*
TestSession_ValidCookie verifies that a valid session binds both ambient
values: the user payload and a client built from its token.
*/
func TestSession_ValidCookie(t *testing.T) {
	manager := &fakeManager{}
	cookie := sessionCookie(t, &sec.ActiveUser{Token: "gho_ok", Actor: "octocat"})

	recorder, seenUser, seenClient := run(t, manager, cookie)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seenUser)
	assert.Equal(t, "octocat", seenUser.Actor)
	assert.True(t, seenClient)
	assert.Equal(t, 1, manager.validated)
	assert.Zero(t, manager.refreshes)
}

/*
TestSession_TamperedCookie verifies that an unverifiable cookie is expired
and the request downgrades to anonymous without touching the provider.
*/
func TestSession_TamperedCookie(t *testing.T) {
	manager := &fakeManager{}

	recorder, seenUser, _ := run(t, manager, &http.Cookie{
		Name:  constants.SessionCookieName,
		Value: "not-a-signed-session",
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, seenUser)
	assert.Zero(t, manager.validated)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

/*
TestSession_RefreshSuccess verifies the transparent refresh path: the
rotated payload is bound and the cookie is re-issued.
*/
func TestSession_RefreshSuccess(t *testing.T) {
	manager := &fakeManager{
		validateErr: apperr.Unauthorized("Invalid token"),
		refreshed:   &sec.ActiveUser{Token: "gho_fresh", RefreshToken: "ghr_new", Actor: "octocat"},
	}
	cookie := sessionCookie(t, &sec.ActiveUser{Token: "gho_stale", RefreshToken: "ghr_old", Actor: "octocat"})

	recorder, seenUser, seenClient := run(t, manager, cookie)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seenUser)
	assert.Equal(t, "gho_fresh", seenUser.Token)
	assert.True(t, seenClient)
	assert.Equal(t, 1, manager.refreshes)

	// The re-issued cookie decodes to the rotated payload.
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	reissued, err := newCodec().Decode(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "gho_fresh", reissued.Token)
	assert.Equal(t, "ghr_new", reissued.RefreshToken)
}

/*
TestSession_RefreshFailure verifies the downgrade path: a failed refresh
expires the cookie and the request proceeds anonymously.
*/
func TestSession_RefreshFailure(t *testing.T) {
	manager := &fakeManager{
		validateErr: apperr.Unauthorized("Invalid token"),
		refreshErr:  apperr.Unauthorized("Invalid refresh token"),
	}
	cookie := sessionCookie(t, &sec.ActiveUser{Token: "gho_stale", Actor: "octocat"})

	recorder, seenUser, seenClient := run(t, manager, cookie)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, seenUser)
	assert.False(t, seenClient)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

/*
TestRequireAuth verifies the gate placed after [middleware.Session].
*/
func TestRequireAuth(t *testing.T) {
	inner := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireAuth(inner)

	// Anonymous: rejected.
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Authenticated: passes through.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ctxutil.WithActiveUser(request.Context(), &sec.ActiveUser{Actor: "octocat"})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request.WithContext(ctx))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
