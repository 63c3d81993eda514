// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gitpress/internal/article"
	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/github/githubtest"
)

// newStore spins up the fake object store and a credential-bound context,
// the way the session middleware would prepare one.
func newStore(t *testing.T) (*article.GitHubRepository, *githubtest.Server, context.Context) {
	t.Helper()
	server := githubtest.NewServer()
	t.Cleanup(server.Close)

	client := github.NewClient(github.Options{
		BaseURL: server.URL(),
		Owner:   "octocat",
		Repo:    "blog",
	}, "gho_test")

	ctx := ctxutil.WithClient(context.Background(), client)
	return article.NewGitHubRepository("main"), server, ctx
}

func metaAt(t *testing.T, server *githubtest.Server) []article.MetaEntry {
	t.Helper()
	raw, ok := server.FileAt("main", "public/meta.json")
	require.True(t, ok, "metadata index should exist")

	var meta []article.MetaEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	return meta
}

/*
TestStore_Save_Create verifies that a first save writes the body and the
index entry in one commit, with the index created from scratch.
*/
func TestStore_Save_Create(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	post := article.New("hello-world", "octocat", "Hello World", "a summary", "# Hello\n", "", nil, []string{"go"}, nil)
	require.NoError(t, store.Save(ctx, post))

	// Body and index land together.
	body, ok := server.FileAt("main", "public/blog/hello-world/index.md")
	require.True(t, ok)
	assert.Equal(t, "# Hello\n", body)

	meta := metaAt(t, server)
	require.Len(t, meta, 1)
	assert.Equal(t, "hello-world", meta[0].Slug)
	assert.Equal(t, "octocat", meta[0].Actor)
	assert.Equal(t, []string{"go"}, meta[0].Tags)
	assert.NotNil(t, meta[0].Categories, "nil slices must serialize as arrays")

	messages := server.Messages()
	require.NotEmpty(t, messages)
	assert.Equal(t, `chore(blog): create blog "hello-world"`, messages[len(messages)-1])
}

/*
TestStore_Save_UpsertOrder verifies index ordering: a new slug is inserted
at the front, an existing slug is replaced in place.
*/
func TestStore_Save_UpsertOrder(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	for _, slug := range []string{"first", "second", "third"} {
		post := article.New(slug, "octocat", "Title "+slug, "", "body "+slug, "", nil, nil, nil)
		require.NoError(t, store.Save(ctx, post))
	}

	meta := metaAt(t, server)
	require.Len(t, meta, 3)
	assert.Equal(t, "third", meta[0].Slug)
	assert.Equal(t, "second", meta[1].Slug)
	assert.Equal(t, "first", meta[2].Slug)

	// Re-saving "second" keeps its position but replaces its entry.
	updated := article.New("second", "octocat", "Rewritten", "", "new body", "", nil, nil, nil)
	updated.Update("Rewritten", "", "new body", "", nil, nil, nil)
	require.NoError(t, store.Save(ctx, updated))

	meta = metaAt(t, server)
	require.Len(t, meta, 3)
	assert.Equal(t, "second", meta[1].Slug)
	assert.Equal(t, "Rewritten", meta[1].Title)

	messages := server.Messages()
	assert.Equal(t, `chore(blog): update blog "second"`, messages[len(messages)-1])
}

/*
TestStore_Save_Conflict verifies the commit point: when a competing writer
advances the branch between snapshot and ref update, the save fails with
Conflict and installs nothing.
*/
func TestStore_Save_Conflict(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	raced := false
	server.AfterGetRef = func() {
		if raced {
			return
		}
		raced = true
		server.WriteFile("main", "race.txt", "x", "competing write")
	}

	post := article.New("hello-world", "octocat", "Hello World", "", "# Hello\n", "", nil, nil, nil)
	err := store.Save(ctx, post)

	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	// The losing transaction left no reachable trace.
	_, ok := server.FileAt("main", "public/blog/hello-world/index.md")
	assert.False(t, ok)
	_, ok = server.FileAt("main", "public/meta.json")
	assert.False(t, ok)
}

/*
TestStore_FindOne verifies the body+index join and the absence contract
(nil, nil) for missing slugs.
*/
func TestStore_FindOne(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	saved := article.New("hello-world", "octocat", "Hello World", "a summary", "# Hello\n", "https://cdn.example/cover.png", []string{"dev"}, []string{"go"}, nil)
	require.NoError(t, store.Save(ctx, saved))

	found, err := store.FindOne(ctx, "hello-world")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "hello-world", found.Slug)
	assert.Equal(t, "Hello World", found.Title)
	assert.Equal(t, "# Hello\n", found.Content)
	assert.Equal(t, "https://cdn.example/cover.png", found.CoverURL)
	assert.Equal(t, []string{"dev"}, found.Categories)
	assert.Nil(t, found.UpdatedAt)

	// Absent slug: nil article, nil error.
	missing, err := store.FindOne(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// A body without a matching index entry is absence, never partial data.
	server.WriteFile("main", "public/blog/orphan/index.md", "# orphan", "add orphan body")
	orphan, err := store.FindOne(ctx, "orphan")
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

/*
TestStore_RemoveOne verifies soft deletion: the slug disappears from the
index while the body file is retained.
*/
func TestStore_RemoveOne(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	require.NoError(t, store.Save(ctx, article.New("keep", "octocat", "Keep", "", "kept body", "", nil, nil, nil)))
	require.NoError(t, store.Save(ctx, article.New("drop", "octocat", "Drop", "", "dropped body", "", nil, nil, nil)))

	require.NoError(t, store.RemoveOne(ctx, "drop"))

	meta := metaAt(t, server)
	require.Len(t, meta, 1)
	assert.Equal(t, "keep", meta[0].Slug)

	// Soft delete: the body file survives unlisting.
	body, ok := server.FileAt("main", "public/blog/drop/index.md")
	require.True(t, ok)
	assert.Equal(t, "dropped body", body)

	messages := server.Messages()
	assert.Equal(t, `chore(blog): unlist article "drop" from meta`, messages[len(messages)-1])
}

/*
TestStore_RemoveOne_NoOp verifies the two silent no-op cases: an unknown
slug, and a repository without any index file. Neither produces a commit.
*/
func TestStore_RemoveOne_NoOp(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	// No index file at all.
	require.NoError(t, store.RemoveOne(ctx, "anything"))

	require.NoError(t, store.Save(ctx, article.New("present", "octocat", "Present", "", "body", "", nil, nil, nil)))
	commitsBefore := len(server.Messages())

	// Unknown slug with an existing index.
	require.NoError(t, store.RemoveOne(ctx, "absent"))
	assert.Len(t, server.Messages(), commitsBefore, "a no-op removal must not commit")
}

/*
TestStore_RemoveBySlugs verifies batch unlisting in a single write with
surviving order preserved.
*/
func TestStore_RemoveBySlugs(t *testing.T) {
	store, server, ctx := newStore(t)
	server.Seed("main", map[string]string{"README.md": "# blog"})

	for _, slug := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Save(ctx, article.New(slug, "octocat", "T "+slug, "", "body", "", nil, nil, nil)))
	}
	commitsBefore := len(server.Messages())

	require.NoError(t, store.RemoveBySlugs(ctx, []string{"b", "d", "not-there"}))

	meta := metaAt(t, server)
	require.Len(t, meta, 2)
	assert.Equal(t, "c", meta[0].Slug)
	assert.Equal(t, "a", meta[1].Slug)

	messages := server.Messages()
	assert.Len(t, messages, commitsBefore+1, "batch removal is one write")
	assert.Equal(t, fmt.Sprintf("chore(blog): unlist multiple %d articles from meta", 3), messages[len(messages)-1])
}

/*
TestStore_RequiresCredentials verifies that every operation refuses to run
without a bound client.
*/
func TestStore_RequiresCredentials(t *testing.T) {
	store := article.NewGitHubRepository("main")
	ctx := context.Background()

	err := store.Save(ctx, article.New("x", "octocat", "X", "", "body", "", nil, nil, nil))
	assert.True(t, apperr.IsUnauthorized(err))

	_, err = store.FindOne(ctx, "x")
	assert.True(t, apperr.IsUnauthorized(err))

	assert.True(t, apperr.IsUnauthorized(store.RemoveOne(ctx, "x")))
	assert.True(t, apperr.IsUnauthorized(store.RemoveBySlugs(ctx, []string{"x"})))
}
