// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gitpress/internal/platform/middleware"
	requestutil "github.com/taibuivan/gitpress/internal/platform/request"
	"github.com/taibuivan/gitpress/internal/platform/respond"
)

// Handler implements the article HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the article route group.
//
// # Endpoints
//   - GET    /            : List metadata index entries.
//   - GET    /{slug}      : Fetch one article with its body.
//   - POST   /            : Publish a new article.
//   - PUT    /{slug}      : Replace an existing article.
//   - DELETE /{slug}      : Unlist one article (soft delete).
//   - POST   /batch-remove: Unlist several articles in one write.
//
// Every endpoint requires a session: even reads go through the caller's
// GitHub credential, there is no anonymous storage access.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Get("/{slug}", handler.get)
	router.Post("/", handler.create)
	router.Put("/{slug}", handler.update)
	router.Delete("/{slug}", handler.remove)
	router.Post("/batch-remove", handler.removeMany)

	return router
}

// # Request Payloads

type articleRequest struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Content    string   `json:"content"`
	CoverURL   string   `json:"coverUrl"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

type batchRemoveRequest struct {
	Slugs []string `json:"slugs"`
}

// # Handlers

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entries)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	articleSlug := requestutil.Param(request, "slug")

	found, err := handler.service.Get(request.Context(), articleSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var payload articleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), CreateInput{
		Slug:       payload.Slug,
		Title:      payload.Title,
		Summary:    payload.Summary,
		Content:    payload.Content,
		CoverURL:   payload.CoverURL,
		Categories: payload.Categories,
		Tags:       payload.Tags,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	articleSlug := requestutil.Param(request, "slug")

	var payload articleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Update(request.Context(), articleSlug, UpdateInput{
		Title:      payload.Title,
		Summary:    payload.Summary,
		Content:    payload.Content,
		CoverURL:   payload.CoverURL,
		Categories: payload.Categories,
		Tags:       payload.Tags,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	articleSlug := requestutil.Param(request, "slug")

	if err := handler.service.Remove(request.Context(), articleSlug); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) removeMany(writer http.ResponseWriter, request *http.Request) {
	var payload batchRemoveRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RemoveMany(request.Context(), payload.Slugs); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
