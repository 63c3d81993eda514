// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article

import "context"

// Repository is the transactional article store.
//
// Every method reads its credential from the ambient context (see ctxutil)
// and fails with Unauthorized when none is bound.
type Repository interface {
	// Save persists the article's body and index entry as one atomic commit.
	//
	// The write is optimistic: if another writer advanced the branch between
	// the snapshot read and the final ref update, Save fails with a Conflict
	// error and performs no retry. Retrying from scratch is the caller's
	// responsibility.
	Save(ctx context.Context, article *Article) error

	// FindOne fetches an article by slug, joining body and index entry.
	// Absence (of the body, the index, or the entry) is (nil, nil), not an error.
	FindOne(ctx context.Context, slug string) (*Article, error)

	// RemoveOne unlists the slug from the metadata index. The body file is
	// deliberately kept (soft delete). A slug that is not listed is a
	// silent no-op and performs no write.
	RemoveOne(ctx context.Context, slug string) error

	// RemoveBySlugs unlists every matching slug in a single write,
	// preserving the relative order of the survivors.
	RemoveBySlugs(ctx context.Context, slugs []string) error
}

// MetaRepository is the read-only metadata index view.
//
// It reads the single index file directly by path, without the tree walk
// the write path needs.
type MetaRepository interface {
	// FindAll returns every index entry in stored order. An absent index
	// file (or one that is unexpectedly not a regular file) is an empty
	// list, not an error.
	FindAll(ctx context.Context) ([]MetaEntry, error)

	// FindOne returns the entry matching slug, or nil when not listed.
	FindOne(ctx context.Context, slug string) (*MetaEntry, error)
}
