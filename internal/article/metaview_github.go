// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article

import (
	"context"

	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
)

// GitHubMetaRepository implements [MetaRepository].
//
// Listing never needs the tree walk of the write path: the whole index is
// one file at a fixed path on the active branch.
type GitHubMetaRepository struct {
	inner *GitHubRepository
}

// NewGitHubMetaRepository constructs a [*GitHubMetaRepository] for one branch.
func NewGitHubMetaRepository(branch string) *GitHubMetaRepository {
	return &GitHubMetaRepository{inner: NewGitHubRepository(branch)}
}

// FindAll reads and parses the index file in a single fetch.
func (repository *GitHubMetaRepository) FindAll(ctx context.Context) ([]MetaEntry, error) {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return nil, err
	}

	meta, found, err := repository.inner.readMetaFile(ctx, client)
	if err != nil {
		return nil, err
	}
	if !found {
		return []MetaEntry{}, nil
	}
	return meta, nil
}

// FindOne scans the index linearly for the matching slug.
func (repository *GitHubMetaRepository) FindOne(ctx context.Context, slug string) (*MetaEntry, error) {
	all, err := repository.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Slug == slug {
			return &all[i], nil
		}
	}
	return nil, nil
}
