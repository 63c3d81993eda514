// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import "context"

// Repository is the media store.
//
// Like the article stores, every method reads its credential from the
// ambient context and fails with Unauthorized when none is bound.
type Repository interface {
	// Upload stores content under a collision-avoided filename derived from
	// fileName and returns the created object. It never overwrites.
	Upload(ctx context.Context, fileName string, content []byte) (*Media, error)

	// FindByID fetches one media object by its storage path.
	// Absence is (nil, nil), not an error.
	FindByID(ctx context.Context, id string) (*Media, error)

	// FindAll lists every media object. Best effort: any failure yields an
	// empty list rather than an error.
	FindAll(ctx context.Context) ([]*Media, error)
}
