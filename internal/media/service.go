// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/validate"
)

// Service implements the media use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its store dependency.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// View is the client-facing projection of a [Media] object.
type View struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	IsImage  bool   `json:"isImage"`
}

func toView(media *Media) View {
	return View{
		ID:       media.ID,
		Path:     media.Path,
		URL:      media.URL,
		MimeType: media.MimeType,
		Size:     media.Size,
		IsImage:  media.IsImage(),
	}
}

// Upload validates the file and stores it as a new media object.
//
// The size limit is enforced here, before any network call.
func (service *Service) Upload(ctx context.Context, fileName string, content []byte) (*View, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, validate.RequiredError("file", "A file name is required")
	}
	if len(content) == 0 {
		return nil, validate.RequiredError("file", "The file is empty")
	}
	if len(content) > constants.MaxUploadBytes {
		return nil, apperr.ValidationError(
			fmt.Sprintf("File %s is over the %dMB limit", fileName, constants.MaxUploadBytes/(1024*1024)),
		)
	}

	uploaded, err := service.repository.Upload(ctx, fileName, content)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "media_uploaded",
		slog.String("path", uploaded.Path),
		slog.Int64("size", uploaded.Size),
	)

	view := toView(uploaded)
	return &view, nil
}

// Get fetches one media object by its storage path.
func (service *Service) Get(ctx context.Context, id string) (*View, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validate.RequiredError("id", "This field is required")
	}

	found, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperr.NotFound("Media")
	}

	view := toView(found)
	return &view, nil
}

// List returns every stored media object (best effort, see [Repository.FindAll]).
func (service *Service) List(ctx context.Context) ([]View, error) {
	all, err := service.repository.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(all))
	for _, item := range all {
		views = append(views, toView(item))
	}
	return views, nil
}
