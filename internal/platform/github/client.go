// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package github is a thin typed façade over the GitHub REST surface used as
the durable object store for the content repository.

It exposes exactly the primitives the storage layer needs — ref lookup, tree
lookup, blob read/create, tree create, commit create, ref update, and the
single-file contents convenience endpoints — nothing else. It is not a
general-purpose GitHub client.

# Credential binding

A [*Client] is constructed per request from the session's bearer token and
bound into the request [context.Context] (see ctxutil). Storage code obtains
it via ctxutil.RequireClient, which is the authorization gate: no bound
client means Unauthorized.

# Reliability contract

Every method performs exactly one network round trip. No retry or backoff is
layered on top; optimistic-concurrency failures (a ref update that is not a
fast-forward, or a contents write with a stale blob sha) surface as an
[*APIError] the caller must classify with [IsConflict].
*/
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// # Client Definition

// Options configures the repository coordinates and transport of a [Client].
type Options struct {
	// BaseURL is the API root, e.g. "https://api.github.com".
	BaseURL string

	// Owner and Repo identify the content repository.
	Owner string
	Repo  string

	// HTTPClient is the transport to use. Defaults to [http.DefaultClient].
	HTTPClient *http.Client
}

// Client calls the GitHub API for one repository with one bearer token.
//
// # Concurrency
//
// A Client is immutable after construction and safe for concurrent use.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	httpClient *http.Client
}

// NewClient constructs a [Client] bound to a single bearer token.
func NewClient(opts Options, token string) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		owner:      opts.Owner,
		repo:       opts.Repo,
		token:      token,
		httpClient: httpClient,
	}
}

// # Error Classification

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	// StatusCode is the HTTP status of the failed call.
	StatusCode int
	// Message is GitHub's error message, when one was returned.
	Message string
	// Method and Path identify the failed call for logging.
	Method string
	Path   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the GitHub API.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a lost optimistic-concurrency race.
//
// GitHub signals these two ways: 409 for a contents write whose expected
// blob sha is stale, and 422 for a ref update that is not a fast-forward.
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.StatusCode == http.StatusConflict ||
		apiErr.StatusCode == http.StatusUnprocessableEntity)
}

// IsUnauthorized reports whether err means the bearer token was rejected.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized ||
		apiErr.StatusCode == http.StatusForbidden)
}

// # Git Data API (refs, trees, blobs, commits)

// GetRef resolves a branch name to its head commit sha.
func (client *Client) GetRef(ctx context.Context, branch string) (string, error) {
	var ref Ref
	path := fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", client.owner, client.repo, branch)
	if err := client.do(ctx, http.MethodGet, path, nil, &ref); err != nil {
		return "", err
	}
	return ref.Object.SHA, nil
}

// GetTree fetches the tree identified by sha.
//
// A commit sha is accepted as well; GitHub resolves it to the root tree.
// With recursive set, all nested entries are returned with slash-separated
// paths instead of one level of entries.
func (client *Client) GetTree(ctx context.Context, sha string, recursive bool) (*Tree, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s", client.owner, client.repo, sha)
	if recursive {
		path += "?recursive=1"
	}
	tree := &Tree{}
	if err := client.do(ctx, http.MethodGet, path, nil, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// GetBlob fetches raw blob content by sha. Content is base64-encoded.
func (client *Client) GetBlob(ctx context.Context, sha string) (*Blob, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/blobs/%s", client.owner, client.repo, sha)
	blob := &Blob{}
	if err := client.do(ctx, http.MethodGet, path, nil, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// CreateBlob writes content as a new blob and returns its sha.
//
// Creating a blob changes no ref: the object stays unreachable until a
// commit referencing it is installed with [Client.UpdateRef].
func (client *Client) CreateBlob(ctx context.Context, content []byte) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/blobs", client.owner, client.repo)
	body := map[string]string{
		"content":  base64.StdEncoding.EncodeToString(content),
		"encoding": "base64",
	}
	var created struct {
		SHA string `json:"sha"`
	}
	if err := client.do(ctx, http.MethodPost, path, body, &created); err != nil {
		return "", err
	}
	return created.SHA, nil
}

// CreateTree creates a new tree from baseTree with the given path overrides.
//
// Only changed paths need to be listed; GitHub folds them into the base
// tree's unchanged entries server-side.
func (client *Client) CreateTree(ctx context.Context, baseTree string, entries []TreeEntry) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees", client.owner, client.repo)
	body := map[string]interface{}{
		"base_tree": baseTree,
		"tree":      entries,
	}
	var created struct {
		SHA string `json:"sha"`
	}
	if err := client.do(ctx, http.MethodPost, path, body, &created); err != nil {
		return "", err
	}
	return created.SHA, nil
}

// CreateCommit creates a commit object pointing at treeSHA.
func (client *Client) CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/commits", client.owner, client.repo)
	body := map[string]interface{}{
		"message": message,
		"tree":    treeSHA,
		"parents": parents,
	}
	var created struct {
		SHA string `json:"sha"`
	}
	if err := client.do(ctx, http.MethodPost, path, body, &created); err != nil {
		return "", err
	}
	return created.SHA, nil
}

// UpdateRef moves the branch head to sha.
//
// Force is never sent: the update succeeds only as a fast-forward, which is
// the single serialization point every write transaction relies on. A
// concurrent writer that advanced the branch first makes this call fail
// with a conflict (see [IsConflict]).
func (client *Client) UpdateRef(ctx context.Context, branch, sha string) error {
	path := fmt.Sprintf("/repos/%s/%s/git/refs/heads/%s", client.owner, client.repo, branch)
	body := map[string]string{"sha": sha}
	return client.do(ctx, http.MethodPatch, path, body, nil)
}

// # Contents API (single-file convenience)

// GetContents reads a single file by repository-relative path.
//
// With an empty ref the repository's default branch is read. When the path
// names a directory the result carries Type "dir" and no content; callers
// that require a regular file must check Type themselves.
func (client *Client) GetContents(ctx context.Context, filePath, ref string) (*FileContent, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", client.owner, client.repo, escapePath(filePath))
	if ref != "" {
		path += "?ref=" + url.QueryEscape(ref)
	}

	var raw json.RawMessage
	if err := client.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	// A directory listing comes back as a JSON array.
	if len(raw) > 0 && raw[0] == '[' {
		return &FileContent{Type: TypeDir, Path: filePath}, nil
	}

	content := &FileContent{}
	if err := json.Unmarshal(raw, content); err != nil {
		return nil, fmt.Errorf("github: decode contents of %s: %w", filePath, err)
	}
	return content, nil
}

// PutContents creates or replaces a single file in one commit.
//
// For a replace, sha must be the previously read blob sha: GitHub rejects
// the write with a conflict when the file changed in between. For a create,
// sha is left empty. An empty branch targets the repository default.
func (client *Client) PutContents(ctx context.Context, filePath string, content []byte, message, sha, branch string) (*PutResult, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", client.owner, client.repo, escapePath(filePath))
	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		body["sha"] = sha
	}
	if branch != "" {
		body["branch"] = branch
	}

	result := &PutResult{}
	if err := client.do(ctx, http.MethodPut, path, body, result); err != nil {
		return nil, err
	}
	return result, nil
}

// # Transport

// do executes one API call and decodes the JSON response into out (when non-nil).
func (client *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("github: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}

	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return newAPIError(response, method, path)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decode response of %s %s: %w", method, path, err)
	}
	return nil
}

// newAPIError extracts GitHub's error message from a failed response.
func newAPIError(response *http.Response, method, path string) *APIError {
	apiErr := &APIError{
		StatusCode: response.StatusCode,
		Method:     method,
		Path:       path,
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// escapePath percent-encodes each segment of a repository-relative path
// while keeping the slashes that separate them.
func escapePath(filePath string) string {
	segments := strings.Split(filePath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
