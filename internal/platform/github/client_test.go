// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package github_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/github/githubtest"
)

func newTestClient(t *testing.T) (*github.Client, *githubtest.Server) {
	t.Helper()
	server := githubtest.NewServer()
	t.Cleanup(server.Close)

	client := github.NewClient(github.Options{
		BaseURL: server.URL(),
		Owner:   "octocat",
		Repo:    "blog",
	}, "gho_test")
	return client, server
}

/*
TestClient_GetRef verifies branch head resolution and the 404 mapping for
unknown branches.
*/
func TestClient_GetRef(t *testing.T) {
	client, server := newTestClient(t)
	head := server.Seed("main", map[string]string{"README.md": "# blog"})

	sha, err := client.GetRef(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, head, sha)

	_, err = client.GetRef(context.Background(), "missing")
	assert.True(t, github.IsNotFound(err))
}

/*
TestClient_BlobRoundTrip verifies that a created blob reads back with the
same bytes through the base64 transfer encoding.
*/
func TestClient_BlobRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	content := []byte("# Hello\n\nMarkdown with unicode: chào\n")
	sha, err := client.CreateBlob(ctx, content)
	require.NoError(t, err)
	require.NotEmpty(t, sha)

	blob, err := client.GetBlob(ctx, sha)
	require.NoError(t, err)

	decoded, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

/*
TestClient_CommitFlow drives the full write transaction: blob → tree →
commit → ref update, then reads the file back from the new snapshot.
*/
func TestClient_CommitFlow(t *testing.T) {
	client, server := newTestClient(t)
	ctx := context.Background()
	server.Seed("main", map[string]string{"README.md": "# blog"})

	head, err := client.GetRef(ctx, "main")
	require.NoError(t, err)

	blobSHA, err := client.CreateBlob(ctx, []byte("body"))
	require.NoError(t, err)

	treeSHA, err := client.CreateTree(ctx, head, []github.TreeEntry{{
		Path: "public/blog/hello/index.md",
		Mode: github.ModeFile,
		Type: github.TypeBlob,
		SHA:  blobSHA,
	}})
	require.NoError(t, err)

	commitSHA, err := client.CreateCommit(ctx, "add hello", treeSHA, []string{head})
	require.NoError(t, err)

	require.NoError(t, client.UpdateRef(ctx, "main", commitSHA))

	// New snapshot carries both the old and the new file.
	assert.Equal(t, commitSHA, server.Head("main"))

	written, ok := server.FileAt("main", "public/blog/hello/index.md")
	require.True(t, ok)
	assert.Equal(t, "body", written)

	kept, ok := server.FileAt("main", "README.md")
	require.True(t, ok)
	assert.Equal(t, "# blog", kept)
}

/*
TestClient_UpdateRef_NotFastForward verifies that a stale ref update is
surfaced as a conflict, not applied.
*/
func TestClient_UpdateRef_NotFastForward(t *testing.T) {
	client, server := newTestClient(t)
	ctx := context.Background()
	server.Seed("main", map[string]string{"README.md": "# blog"})

	head, err := client.GetRef(ctx, "main")
	require.NoError(t, err)

	// Stage a commit on top of the current head.
	treeSHA, err := client.CreateTree(ctx, head, []github.TreeEntry{{
		Path: "a.txt", Mode: github.ModeFile, Type: github.TypeBlob, SHA: mustBlob(t, client, "a"),
	}})
	require.NoError(t, err)
	staleCommit, err := client.CreateCommit(ctx, "stale", treeSHA, []string{head})
	require.NoError(t, err)

	// A competing writer advances the branch first.
	server.WriteFile("main", "b.txt", "b", "competing write")

	err = client.UpdateRef(ctx, "main", staleCommit)
	require.Error(t, err)
	assert.True(t, github.IsConflict(err))

	// The losing commit is not installed.
	assert.NotEqual(t, staleCommit, server.Head("main"))
	_, ok := server.FileAt("main", "a.txt")
	assert.False(t, ok)
}

/*
TestClient_GetTree verifies flat and recursive listings.
*/
func TestClient_GetTree(t *testing.T) {
	client, server := newTestClient(t)
	ctx := context.Background()
	head := server.Seed("main", map[string]string{
		"public/meta.json":           "[]",
		"public/blog/hello/index.md": "# hello",
		"public/media/pic.png":       "png-bytes",
		"README.md":                  "# blog",
	})

	// Flat: only the root level.
	flat, err := client.GetTree(ctx, head, false)
	require.NoError(t, err)
	require.Len(t, flat.Entries, 2)

	var names []string
	for _, e := range flat.Entries {
		names = append(names, e.Path)
	}
	assert.ElementsMatch(t, []string{"README.md", "public"}, names)

	// Recursive: slash-separated paths for every nested object.
	recursive, err := client.GetTree(ctx, head, true)
	require.NoError(t, err)

	paths := make(map[string]string) // path → type
	for _, e := range recursive.Entries {
		paths[e.Path] = e.Type
	}
	assert.Equal(t, github.TypeBlob, paths["public/meta.json"])
	assert.Equal(t, github.TypeBlob, paths["public/blog/hello/index.md"])
	assert.Equal(t, github.TypeBlob, paths["public/media/pic.png"])
	assert.Equal(t, github.TypeTree, paths["public/blog"])
}

/*
TestClient_Contents verifies the single-file read/write endpoints including
the stale-sha conflict.
*/
func TestClient_Contents(t *testing.T) {
	client, server := newTestClient(t)
	ctx := context.Background()
	server.Seed("main", map[string]string{"public/meta.json": `[{"slug":"hello"}]`})

	// Read.
	file, err := client.GetContents(ctx, "public/meta.json", "main")
	require.NoError(t, err)
	assert.Equal(t, github.TypeFile, file.Type)

	raw, err := file.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"hello"}]`, string(raw))

	// Replace with the read sha as concurrency token.
	result, err := client.PutContents(ctx, "public/meta.json", []byte("[]"), "chore(blog): unlist", file.SHA, "main")
	require.NoError(t, err)
	require.NotNil(t, result.Content)

	updated, ok := server.FileAt("main", "public/meta.json")
	require.True(t, ok)
	assert.Equal(t, "[]", updated)

	// Replaying the write with the now-stale sha loses the race.
	_, err = client.PutContents(ctx, "public/meta.json", []byte("[]"), "chore(blog): unlist", file.SHA, "main")
	require.Error(t, err)
	assert.True(t, github.IsConflict(err))

	// Missing file reads map to 404.
	_, err = client.GetContents(ctx, "public/absent.json", "main")
	assert.True(t, github.IsNotFound(err))

	// Directory paths come back typed as a directory, not an error.
	dir, err := client.GetContents(ctx, "public", "main")
	require.NoError(t, err)
	assert.Equal(t, github.TypeDir, dir.Type)
}

func mustBlob(t *testing.T, client *github.Client, content string) string {
	t.Helper()
	sha, err := client.CreateBlob(context.Background(), []byte(content))
	require.NoError(t, err)
	return sha
}
