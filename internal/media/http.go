// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/middleware"
	"github.com/taibuivan/gitpress/internal/platform/respond"
)

// Handler implements the media HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the media route group.
//
// # Endpoints
//   - GET  /  : List all media objects.
//   - POST /  : Upload a file (multipart form, field "file").
//   - GET  /* : Fetch one media object by its storage path.
//
// The wildcard route is deliberate: media IDs are repository paths and
// contain slashes (e.g. public/media/diagram-<uuid>.png).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.upload)
	router.Get("/*", handler.get)

	return router
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	views, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, views)
}

func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	// Cap the parsed body slightly above the domain limit so oversized
	// uploads reach the service's validation error instead of a raw 500.
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxUploadBytes+1024*1024)

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("A multipart field named \"file\" is required"))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("The uploaded file could not be read"))
		return
	}

	view, err := handler.service.Upload(request.Context(), header.Filename, content)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, view)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "*")

	view, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}
