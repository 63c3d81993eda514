// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/validate"
	"github.com/taibuivan/gitpress/pkg/slug"
)

// Service implements the article use cases.
//
// It owns input validation and orchestration only; all storage logic lives
// behind [Repository] and [MetaRepository]. Every method expects a
// Credential Context to be established by the caller (the session
// middleware) — operations with no active context fail with Unauthorized
// from the storage layer.
type Service struct {
	repository     Repository
	metaRepository MetaRepository
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its store dependencies.
func NewService(repository Repository, metaRepository MetaRepository, logger *slog.Logger) *Service {
	return &Service{
		repository:     repository,
		metaRepository: metaRepository,
		logger:         logger,
	}
}

// # Inputs

// CreateInput holds the author-provided fields of a new article.
//
// Slug may be left empty, in which case one is derived from the title.
type CreateInput struct {
	Slug       string
	Title      string
	Summary    string
	Content    string
	CoverURL   string
	Categories []string
	Tags       []string
}

// UpdateInput holds the replacement fields for an existing article.
type UpdateInput struct {
	Title      string
	Summary    string
	Content    string
	CoverURL   string
	Categories []string
	Tags       []string
}

// # Use Cases

// Create validates the input and persists a brand new article.
//
// The creator identity (actor) is taken from the active user payload bound
// in the request context, never from the input.
func (service *Service) Create(ctx context.Context, input CreateInput) (*Article, error) {
	activeUser, err := ctxutil.RequireActiveUser(ctx)
	if err != nil {
		return nil, err
	}

	articleSlug := strings.TrimSpace(input.Slug)
	if articleSlug == "" {
		articleSlug = slug.From(input.Title)
	}

	validator := &validate.Validator{}
	validator.
		Required("slug", articleSlug).
		Slug("slug", articleSlug).
		Required("title", input.Title).
		MaxLen("title", input.Title, 200).
		Required("content", input.Content).
		MaxLen("summary", input.Summary, 500)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	created := New(
		articleSlug,
		activeUser.Actor,
		input.Title,
		input.Summary,
		input.Content,
		input.CoverURL,
		input.Categories,
		input.Tags,
		nil,
	)

	if err := service.repository.Save(ctx, created); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "article_created",
		slog.String("slug", created.Slug),
		slog.String("actor", created.Actor),
	)
	return created, nil
}

// Update loads the article, replaces its mutable fields, and saves it back.
//
// Returns [apperr.NotFound] when the slug is not published.
func (service *Service) Update(ctx context.Context, articleSlug string, input UpdateInput) (*Article, error) {
	validator := &validate.Validator{}
	validator.
		Required("slug", articleSlug).
		Required("title", input.Title).
		MaxLen("title", input.Title, 200).
		Required("content", input.Content).
		MaxLen("summary", input.Summary, 500)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	existing, err := service.repository.FindOne(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("Article")
	}

	existing.Update(
		input.Title,
		input.Summary,
		input.Content,
		input.CoverURL,
		input.Categories,
		input.Tags,
		existing.UploadedImageURLs,
	)

	if err := service.repository.Save(ctx, existing); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "article_updated", slog.String("slug", existing.Slug))
	return existing, nil
}

// Get fetches one article by slug.
//
// The storage layer models absence as a nil result; this use case needs the
// article, so absence becomes [apperr.NotFound] here.
func (service *Service) Get(ctx context.Context, articleSlug string) (*Article, error) {
	if strings.TrimSpace(articleSlug) == "" {
		return nil, validate.RequiredError("slug", "This field is required")
	}

	found, err := service.repository.FindOne(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperr.NotFound("Article")
	}
	return found, nil
}

// List returns every metadata index entry in stored order.
func (service *Service) List(ctx context.Context) ([]MetaEntry, error) {
	return service.metaRepository.FindAll(ctx)
}

// Remove unlists one article from the metadata index.
//
// An unlisted slug is a silent no-op by design, so Remove never reports
// NotFound.
func (service *Service) Remove(ctx context.Context, articleSlug string) error {
	if strings.TrimSpace(articleSlug) == "" {
		return validate.RequiredError("slug", "This field is required")
	}
	return service.repository.RemoveOne(ctx, articleSlug)
}

// RemoveMany unlists a batch of articles in a single index write.
func (service *Service) RemoveMany(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return validate.RequiredError("slugs", "At least one slug is required")
	}
	for _, articleSlug := range slugs {
		if strings.TrimSpace(articleSlug) == "" {
			return validate.RequiredError("slugs", "Slugs must be non-empty strings")
		}
	}
	return service.repository.RemoveBySlugs(ctx, slugs)
}
