// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/github"
)

// GitHubRepository implements [Repository] on top of the contents API.
//
// Uploads go through the single-file convenience write: each one is its own
// commit, there is no multi-file transaction to emulate here.
type GitHubRepository struct {
	owner      string
	repo       string
	branch     string
	cdnBaseURL string
}

// NewGitHubRepository constructs a [*GitHubRepository].
//
// owner/repo/branch are needed locally (beyond what the ambient client
// already knows) to derive the deterministic CDN URL.
func NewGitHubRepository(owner, repo, branch, cdnBaseURL string) *GitHubRepository {
	return &GitHubRepository{
		owner:      owner,
		repo:       repo,
		branch:     branch,
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
	}
}

// Upload stores content as a new object under public/media.
//
// The stored name is the original base name plus a UUID suffix plus the
// original extension, so uploading the same file twice produces two
// distinct, independently resolvable objects.
func (repository *GitHubRepository) Upload(ctx context.Context, fileName string, content []byte) (*Media, error) {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return nil, err
	}

	extension := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, extension)
	uniqueName := fmt.Sprintf("%s-%s%s", baseName, uuid.NewString(), extension)
	storagePath := constants.MediaDirPath + "/" + uniqueName

	message := fmt.Sprintf("chore(media): upload %s", uniqueName)
	result, err := client.PutContents(ctx, storagePath, content, message, "", repository.branch)
	if err != nil {
		return nil, fmt.Errorf("media: upload %q: %w", uniqueName, err)
	}
	if result.Content == nil || result.Content.DownloadURL == "" {
		return nil, fmt.Errorf("media: upload %q: store returned no content", uniqueName)
	}

	size := result.Content.Size
	if size == 0 {
		size = int64(len(content))
	}

	return &Media{
		ID:       storagePath,
		Path:     storagePath,
		URL:      repository.cdnURL(storagePath),
		MimeType: mimeTypeOf(fileName),
		Size:     size,
	}, nil
}

// FindByID fetches one media object by storage path. A 404, a directory, or
// a non-downloadable entry is absence.
func (repository *GitHubRepository) FindByID(ctx context.Context, id string) (*Media, error) {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return nil, err
	}

	content, err := client.GetContents(ctx, id, repository.branch)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("media: read %q: %w", id, err)
	}
	if content.Type != github.TypeFile || content.DownloadURL == "" {
		return nil, nil
	}

	return &Media{
		ID:       content.Path,
		Path:     content.Path,
		URL:      repository.cdnURL(content.Path),
		MimeType: mimeTypeOf(id),
		Size:     content.Size,
	}, nil
}

// FindAll walks the branch tree recursively and keeps the media blobs.
//
// Best effort by design: any failure (bad credential, truncated tree, API
// outage) degrades to an empty gallery instead of failing the caller.
func (repository *GitHubRepository) FindAll(ctx context.Context) ([]*Media, error) {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return []*Media{}, nil
	}

	headSHA, err := client.GetRef(ctx, repository.branch)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "media_list_degraded", "error", err.Error())
		return []*Media{}, nil
	}

	tree, err := client.GetTree(ctx, headSHA, true)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "media_list_degraded", "error", err.Error())
		return []*Media{}, nil
	}

	all := make([]*Media, 0)
	for _, entry := range tree.Entries {
		if entry.Type != github.TypeBlob || !strings.HasPrefix(entry.Path, constants.MediaDirPath+"/") {
			continue
		}
		all = append(all, &Media{
			ID:       entry.Path,
			Path:     entry.Path,
			URL:      repository.cdnURL(entry.Path),
			MimeType: mimeTypeOf(entry.Path),
			Size:     entry.Size,
		})
	}
	return all, nil
}

// cdnURL derives the public URL for a storage path.
//
// Deterministic: the same owner/repo/branch/path always yields a
// byte-identical URL, with each path segment percent-encoded.
func (repository *GitHubRepository) cdnURL(storagePath string) string {
	segments := strings.Split(storagePath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s@%s/%s",
		repository.cdnBaseURL,
		repository.owner,
		repository.repo,
		repository.branch,
		strings.Join(segments, "/"),
	)
}

// mimeTypeOf derives a mime type from the file extension, defaulting to
// application/octet-stream. Any charset parameter is stripped.
func mimeTypeOf(fileName string) string {
	mimeType := mime.TypeByExtension(path.Ext(fileName))
	if mimeType == "" {
		return "application/octet-stream"
	}
	if index := strings.Index(mimeType, ";"); index >= 0 {
		mimeType = strings.TrimSpace(mimeType[:index])
	}
	return mimeType
}
