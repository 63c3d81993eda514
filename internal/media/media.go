// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package media defines uploaded media objects and their git-backed storage.
//
// Media files live under public/media in the content repository and are
// served to readers through a CDN that mirrors the repository, so the
// public URL is fully determined by the storage path.
package media

import "strings"

// Media represents one uploaded file.
//
// # Rules
//   - ID is the repository-relative storage path and acts as the primary key.
//   - Immutable once created: uploads always mint a new object, never
//     overwrite an existing one.
type Media struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// IsImage reports whether the media is an image, derived from its mime type.
func (media *Media) IsImage() bool {
	return strings.HasPrefix(media.MimeType, "image")
}
