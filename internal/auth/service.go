// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the GitHub OAuth session lifecycle.

It produces and refreshes the credential that seeds the request's Credential
Context:

	Unauthenticated → (exchange) → Active
	Active → (validate fails) → Refreshing
	Refreshing → (refresh succeeds) → Active
	Refreshing → (refresh fails)   → Unauthenticated

A failed refresh means the caller must restart the OAuth flow. Refreshes are
single-flighted per refresh token so near-simultaneous validate failures on
the same credential share one provider call instead of racing.
*/
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/config"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/sec"
	"github.com/taibuivan/gitpress/internal/platform/validate"
)

// Service implements the session manager use cases.
//
// # Concurrency
//
// Safe for concurrent use; the singleflight group coalesces refreshes of
// the same credential.
type Service struct {
	clientID     string
	clientSecret string
	oauthBaseURL string
	apiBaseURL   string
	httpClient   *http.Client

	refreshGroup singleflight.Group
}

// NewService constructs a [*Service] from the OAuth app configuration.
func NewService(cfg *config.Config, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{
		clientID:     cfg.GitHubClientID,
		clientSecret: cfg.GitHubClientSecret,
		oauthBaseURL: strings.TrimRight(cfg.GitHubOAuthBaseURL, "/"),
		apiBaseURL:   strings.TrimRight(cfg.GitHubAPIBaseURL, "/"),
		httpClient:   httpClient,
	}
}

// # Authorization URL

// AuthorizationURL builds the provider's web-flow authorization endpoint URL.
//
// Deterministic and side-effect free: the callback lands on the fixed
// callback path under origin, and returnTo rides along as opaque state so
// the callback can send the user back where they started.
func (service *Service) AuthorizationURL(origin, returnTo string) string {
	query := url.Values{}
	query.Set("client_id", service.clientID)
	query.Set("redirect_uri", strings.TrimRight(origin, "/")+constants.OAuthCallbackPath)
	query.Set("allow_signup", "false")
	if returnTo != "" {
		query.Set("state", returnTo)
	}
	return service.oauthBaseURL + "/authorize?" + query.Encode()
}

// # Code Exchange

// ExchangeCode trades a one-time authorization code for a full session payload.
//
// The provider token exchange is followed by an identity fetch (login,
// avatar, email) with the fresh token. Transport and provider failures
// propagate unwrapped; only a missing code is rejected locally.
func (service *Service) ExchangeCode(ctx context.Context, code string) (*sec.ActiveUser, error) {
	if strings.TrimSpace(code) == "" {
		return nil, validate.RequiredError("code", "This field is required")
	}

	form := url.Values{}
	form.Set("code", code)
	grant, err := service.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}

	identity, err := service.fetchIdentity(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}

	return &sec.ActiveUser{
		Token:        grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Actor:        identity.Login,
		Avatar:       identity.AvatarURL,
		Email:        identity.Email,
	}, nil
}

// # Validation

// Validate confirms the session's token is still accepted by the provider.
//
// The result is always definite: nil on success, Unauthorized on anything
// else — an expired token, a revoked grant, or a provider that cannot be
// reached all mean the session must not be trusted.
func (service *Service) Validate(ctx context.Context, user *sec.ActiveUser) error {
	checkURL := fmt.Sprintf("%s/applications/%s/token", service.apiBaseURL, url.PathEscape(service.clientID))

	body, err := json.Marshal(map[string]string{"access_token": user.Token})
	if err != nil {
		return apperr.Unauthorized("Invalid token")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, checkURL, strings.NewReader(string(body)))
	if err != nil {
		return apperr.Unauthorized("Invalid token")
	}
	request.SetBasicAuth(service.clientID, service.clientSecret)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("Content-Type", "application/json")

	response, err := service.httpClient.Do(request)
	if err != nil {
		return apperr.Unauthorized("Invalid token")
	}
	defer func() { _ = response.Body.Close() }()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode != http.StatusOK {
		return apperr.Unauthorized("Invalid token")
	}
	return nil
}

// # Refresh

// Refresh exchanges the session's refresh token for a new token pair.
//
// On success the returned payload is a wholesale replacement: token and
// refresh token rotated, identity fields carried over unchanged. Concurrent
// calls for the same refresh token share one provider exchange.
func (service *Service) Refresh(ctx context.Context, user *sec.ActiveUser) (*sec.ActiveUser, error) {
	if user.RefreshToken == "" {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	// The winning caller's context must not cancel the shared exchange that
	// the coalesced callers are waiting on.
	sharedCtx := context.WithoutCancel(ctx)

	result, err, _ := service.refreshGroup.Do(user.RefreshToken, func() (interface{}, error) {
		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", user.RefreshToken)

		grant, err := service.requestToken(sharedCtx, form)
		if err != nil {
			return nil, err
		}

		refreshed := *user
		refreshed.Token = grant.AccessToken
		refreshed.RefreshToken = grant.RefreshToken
		return &refreshed, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*sec.ActiveUser), nil
}

// # Provider Plumbing

// tokenGrant is the provider's token endpoint response.
//
// GitHub reports exchange failures with HTTP 200 and an error field, so
// both shapes are decoded from the same payload.
type tokenGrant struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// requestToken posts to the provider token endpoint with the app credentials
// and the given grant parameters.
func (service *Service) requestToken(ctx context.Context, form url.Values) (*tokenGrant, error) {
	form.Set("client_id", service.clientID)
	form.Set("client_secret", service.clientSecret)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		service.oauthBaseURL+"/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("auth: build token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := service.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("auth: token exchange: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: token exchange: provider returned %d", response.StatusCode)
	}

	grant := &tokenGrant{}
	if err := json.NewDecoder(response.Body).Decode(grant); err != nil {
		return nil, fmt.Errorf("auth: decode token response: %w", err)
	}
	if grant.Error != "" {
		return nil, fmt.Errorf("auth: token exchange rejected: %s (%s)", grant.Error, grant.ErrorDescription)
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("auth: token exchange returned no access token")
	}
	return grant, nil
}

// identity is the subset of the authenticated-user endpoint we keep.
type identity struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

// fetchIdentity reads the authenticated identity with a fresh token.
func (service *Service) fetchIdentity(ctx context.Context, token string) (*identity, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, service.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: build identity request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := service.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch identity: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: fetch identity: provider returned %d", response.StatusCode)
	}

	result := &identity{}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("auth: decode identity response: %w", err)
	}
	return result, nil
}
