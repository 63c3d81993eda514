// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gitpress/internal/article"
	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

// fakeRepository is an in-memory [article.Repository] for service tests.
type fakeRepository struct {
	articles map[string]*article.Article
	saved    []string
	removed  []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{articles: make(map[string]*article.Article)}
}

func (f *fakeRepository) Save(ctx context.Context, post *article.Article) error {
	clone := *post
	f.articles[post.Slug] = &clone
	f.saved = append(f.saved, post.Slug)
	return nil
}

func (f *fakeRepository) FindOne(ctx context.Context, slug string) (*article.Article, error) {
	found, ok := f.articles[slug]
	if !ok {
		return nil, nil
	}
	clone := *found
	return &clone, nil
}

func (f *fakeRepository) RemoveOne(ctx context.Context, slug string) error {
	delete(f.articles, slug)
	f.removed = append(f.removed, slug)
	return nil
}

func (f *fakeRepository) RemoveBySlugs(ctx context.Context, slugs []string) error {
	for _, slug := range slugs {
		delete(f.articles, slug)
	}
	f.removed = append(f.removed, slugs...)
	return nil
}

// fakeMetaRepository serves a fixed index.
type fakeMetaRepository struct {
	entries []article.MetaEntry
}

func (f *fakeMetaRepository) FindAll(ctx context.Context) ([]article.MetaEntry, error) {
	return f.entries, nil
}

func (f *fakeMetaRepository) FindOne(ctx context.Context, slug string) (*article.MetaEntry, error) {
	for i := range f.entries {
		if f.entries[i].Slug == slug {
			return &f.entries[i], nil
		}
	}
	return nil, nil
}

func newTestService() (*article.Service, *fakeRepository, *fakeMetaRepository) {
	repository := newFakeRepository()
	metaRepository := &fakeMetaRepository{}
	service := article.NewService(repository, metaRepository, slog.Default())
	return service, repository, metaRepository
}

func authedContext() context.Context {
	return ctxutil.WithActiveUser(context.Background(), &sec.ActiveUser{
		Token: "gho_test",
		Actor: "octocat",
	})
}

/*
TestService_Create verifies actor stamping from the session and slug
derivation from the title.
*/
func TestService_Create(t *testing.T) {
	service, repository, _ := newTestService()

	created, err := service.Create(authedContext(), article.CreateInput{
		Title:   "Hello, Wörld!",
		Content: "# Hello",
	})
	require.NoError(t, err)

	// Slug derived from the title, actor taken from the session payload.
	assert.Equal(t, "hello-world", created.Slug)
	assert.Equal(t, "octocat", created.Actor)
	assert.Equal(t, []string{"hello-world"}, repository.saved)
}

/*
TestService_Create_Validation verifies rejection before any storage call.
*/
func TestService_Create_Validation(t *testing.T) {
	service, repository, _ := newTestService()

	tests := []struct {
		name  string
		input article.CreateInput
	}{
		{"missing_title", article.CreateInput{Content: "# Hello"}},
		{"missing_content", article.CreateInput{Title: "Hello"}},
		{"bad_explicit_slug", article.CreateInput{Slug: "Not A Slug", Title: "Hello", Content: "# Hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(authedContext(), tt.input)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Empty(t, repository.saved, "invalid input must not reach storage")
		})
	}
}

/*
TestService_Create_RequiresSession verifies the Unauthorized gate for
anonymous contexts.
*/
func TestService_Create_RequiresSession(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.Create(context.Background(), article.CreateInput{
		Title:   "Hello",
		Content: "# Hello",
	})
	assert.True(t, apperr.IsUnauthorized(err))
}

/*
TestService_Update verifies the load-mutate-save flow and NotFound for
unpublished slugs.
*/
func TestService_Update(t *testing.T) {
	service, _, _ := newTestService()
	ctx := authedContext()

	_, err := service.Create(ctx, article.CreateInput{Slug: "hello", Title: "Hello", Content: "# v1"})
	require.NoError(t, err)

	updated, err := service.Update(ctx, "hello", article.UpdateInput{Title: "Hello v2", Content: "# v2"})
	require.NoError(t, err)

	assert.Equal(t, "Hello v2", updated.Title)
	assert.Equal(t, "# v2", updated.Content)
	assert.Equal(t, "octocat", updated.Actor)
	assert.NotNil(t, updated.UpdatedAt)

	// Unknown slug.
	_, err = service.Update(ctx, "absent", article.UpdateInput{Title: "X", Content: "y"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestService_Get verifies absence conversion to NotFound.
*/
func TestService_Get(t *testing.T) {
	service, _, _ := newTestService()
	ctx := authedContext()

	_, err := service.Create(ctx, article.CreateInput{Slug: "hello", Title: "Hello", Content: "# v1"})
	require.NoError(t, err)

	found, err := service.Get(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", found.Slug)

	_, err = service.Get(ctx, "absent")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestService_Remove verifies validation plus the silent no-op contract.
*/
func TestService_Remove(t *testing.T) {
	service, repository, _ := newTestService()
	ctx := authedContext()

	// Unlisted slug is not an error.
	require.NoError(t, service.Remove(ctx, "anything"))

	// Blank slug is invalid input.
	err := service.Remove(ctx, "  ")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)

	// Batch requires at least one slug and no blanks.
	assert.Error(t, service.RemoveMany(ctx, nil))
	assert.Error(t, service.RemoveMany(ctx, []string{"ok", ""}))

	require.NoError(t, service.RemoveMany(ctx, []string{"a", "b"}))
	assert.Equal(t, []string{"anything", "a", "b"}, repository.removed)
}

/*
TestService_List verifies the pass-through to the index view.
*/
func TestService_List(t *testing.T) {
	service, _, metaRepository := newTestService()
	metaRepository.entries = []article.MetaEntry{{Slug: "newest"}, {Slug: "oldest"}}

	listed, err := service.List(authedContext())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "newest", listed[0].Slug)
}
