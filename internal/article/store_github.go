// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package article

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/github"
)

// GitHubRepository implements [Repository] on top of the git object API.
//
// # Transaction emulation
//
// The object store only offers single-ref-update atomicity, so a multi-file
// write is staged as unreachable objects first: blobs, then a tree, then a
// commit, none of which changes the branch. The final ref update is the
// sole commit point; losing it to a concurrent writer surfaces as a
// Conflict and leaves nothing behind but inert unreachable objects.
type GitHubRepository struct {
	branch string
}

// NewGitHubRepository constructs a [*GitHubRepository] for one branch.
func NewGitHubRepository(branch string) *GitHubRepository {
	return &GitHubRepository{branch: branch}
}

// contentPath is the fixed body location for a slug.
func contentPath(slug string) string {
	return constants.BlogDirPath + "/" + slug + "/" + constants.ArticleFileName
}

// Save persists the article body and its index entry in one commit.
//
// # Protocol
//
//  1. Resolve the branch ref to the head commit — everything up to step 9
//     reads a consistent snapshot as of this sha.
//  2. Read the head commit's root tree.
//  3. Locate the public subtree (absent means the index is empty).
//  4. Locate the index blob inside it (404 tolerated as empty).
//  5. Read and parse the index blob.
//  6. Upsert the article's entry: replace in place, or insert at the front.
//  7. Create the index blob and the body blob (no data dependency — concurrent).
//  8. Create a tree on top of the snapshot's root tree overriding the two paths.
//  9. Create a commit with the snapshot head as sole parent.
//  10. Update the ref. A non-fast-forward here means another writer won the
//     race: surfaced as Conflict, never retried internally.
func (repository *GitHubRepository) Save(ctx context.Context, article *Article) error {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return err
	}

	// ── 1. Snapshot ───────────────────────────────────────────────────────
	headSHA, err := client.GetRef(ctx, repository.branch)
	if err != nil {
		return fmt.Errorf("article: resolve branch %q: %w", repository.branch, err)
	}

	// ── 2. Root tree ──────────────────────────────────────────────────────
	rootTree, err := client.GetTree(ctx, headSHA, false)
	if err != nil {
		return fmt.Errorf("article: read root tree: %w", err)
	}

	// ── 3–5. Current index ────────────────────────────────────────────────
	meta, err := repository.readMetaFromTree(ctx, client, rootTree)
	if err != nil {
		return err
	}

	// ── 6. Upsert ─────────────────────────────────────────────────────────
	entry := article.Meta()
	replaced := false
	for i := range meta {
		if meta[i].Slug == entry.Slug {
			meta[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		meta = append([]MetaEntry{entry}, meta...)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("article: encode metadata index: %w", err)
	}

	// ── 7. Stage blobs (concurrent, no data dependency) ───────────────────
	var metaBlobSHA, bodyBlobSHA string
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sha, blobErr := client.CreateBlob(groupCtx, metaJSON)
		metaBlobSHA = sha
		return blobErr
	})
	group.Go(func() error {
		sha, blobErr := client.CreateBlob(groupCtx, []byte(article.Content))
		bodyBlobSHA = sha
		return blobErr
	})
	if err := group.Wait(); err != nil {
		return fmt.Errorf("article: stage blobs: %w", err)
	}

	// ── 8. Stage tree ─────────────────────────────────────────────────────
	// Only the two changed paths are listed; the store folds them into the
	// snapshot root tree's unchanged entries.
	newTreeSHA, err := client.CreateTree(ctx, rootTree.SHA, []github.TreeEntry{
		{Path: constants.MetaFilePath, Mode: github.ModeFile, Type: github.TypeBlob, SHA: metaBlobSHA},
		{Path: contentPath(article.Slug), Mode: github.ModeFile, Type: github.TypeBlob, SHA: bodyBlobSHA},
	})
	if err != nil {
		return fmt.Errorf("article: stage tree: %w", err)
	}

	// ── 9. Stage commit ───────────────────────────────────────────────────
	action := "create"
	if replaced {
		action = "update"
	}
	message := fmt.Sprintf("chore(blog): %s blog %q", action, article.Slug)

	commitSHA, err := client.CreateCommit(ctx, message, newTreeSHA, []string{headSHA})
	if err != nil {
		return fmt.Errorf("article: stage commit: %w", err)
	}

	// ── 10. Commit point ──────────────────────────────────────────────────
	if err := client.UpdateRef(ctx, repository.branch, commitSHA); err != nil {
		if github.IsConflict(err) {
			conflict := apperr.Conflict("The branch advanced during the save; retry from the latest state")
			conflict.Cause = err
			return conflict
		}
		return fmt.Errorf("article: update ref: %w", err)
	}
	return nil
}

// readMetaFromTree walks root tree → public subtree → index blob, treating
// every absence along the way as an empty index and propagating any other
// failure.
func (repository *GitHubRepository) readMetaFromTree(ctx context.Context, client *github.Client, rootTree *github.Tree) ([]MetaEntry, error) {
	publicSHA := ""
	for _, treeEntry := range rootTree.Entries {
		if treeEntry.Mode == github.ModeDirectory && treeEntry.Path == "public" {
			publicSHA = treeEntry.SHA
			break
		}
	}
	if publicSHA == "" {
		return []MetaEntry{}, nil
	}

	publicTree, err := client.GetTree(ctx, publicSHA, false)
	if err != nil {
		if github.IsNotFound(err) {
			return []MetaEntry{}, nil
		}
		return nil, fmt.Errorf("article: read public tree: %w", err)
	}

	metaSHA := ""
	for _, treeEntry := range publicTree.Entries {
		if treeEntry.Path == "meta.json" {
			metaSHA = treeEntry.SHA
			break
		}
	}
	if metaSHA == "" {
		return []MetaEntry{}, nil
	}

	blob, err := client.GetBlob(ctx, metaSHA)
	if err != nil {
		if github.IsNotFound(err) {
			return []MetaEntry{}, nil
		}
		return nil, fmt.Errorf("article: read metadata blob: %w", err)
	}

	raw, err := blob.Bytes()
	if err != nil {
		return nil, fmt.Errorf("article: decode metadata blob: %w", err)
	}

	meta := []MetaEntry{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("article: parse metadata index: %w", err)
	}
	return meta, nil
}

// FindOne fetches body and index entry directly by path and joins them by slug.
//
// A 404 on either file read is the authoritative absence signal; a listed
// slug without a body — or a body without an index entry — is also absence,
// never partial data.
func (repository *GitHubRepository) FindOne(ctx context.Context, slug string) (*Article, error) {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return nil, err
	}

	bodyFile, err := client.GetContents(ctx, contentPath(slug), repository.branch)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("article: read body of %q: %w", slug, err)
	}
	if bodyFile.Type != github.TypeFile {
		return nil, nil
	}

	body, err := bodyFile.Bytes()
	if err != nil {
		return nil, fmt.Errorf("article: decode body of %q: %w", slug, err)
	}

	meta, found, err := repository.readMetaFile(ctx, client)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	for _, entry := range meta {
		if entry.Slug == slug {
			return fromMeta(entry, string(body)), nil
		}
	}
	return nil, nil
}

// RemoveOne unlists one slug from the metadata index.
func (repository *GitHubRepository) RemoveOne(ctx context.Context, slug string) error {
	message := fmt.Sprintf("chore(blog): unlist article %q from meta", slug)
	return repository.unlist(ctx, message, func(entry MetaEntry) bool {
		return entry.Slug != slug
	})
}

// RemoveBySlugs unlists every matching slug in one write.
func (repository *GitHubRepository) RemoveBySlugs(ctx context.Context, slugs []string) error {
	unwanted := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		unwanted[slug] = struct{}{}
	}

	message := fmt.Sprintf("chore(blog): unlist multiple %d articles from meta", len(slugs))
	return repository.unlist(ctx, message, func(entry MetaEntry) bool {
		_, remove := unwanted[entry.Slug]
		return !remove
	})
}

// unlist reads the index with its current blob sha, keeps the entries the
// predicate accepts, and writes back only when the list actually shrank.
//
// # Soft delete
//
// Body files and referenced media are deliberately left in place: this is
// metadata unlisting for storage retention, not physical deletion. The
// write uses the previously read sha as the optimistic-concurrency token,
// so a concurrent index change surfaces as Conflict.
func (repository *GitHubRepository) unlist(ctx context.Context, message string, keep func(MetaEntry) bool) error {
	client, err := ctxutil.RequireClient(ctx)
	if err != nil {
		return err
	}

	metaFile, err := client.GetContents(ctx, constants.MetaFilePath, repository.branch)
	if err != nil {
		if github.IsNotFound(err) {
			// No index means nothing is listed: a no-op, not an error.
			return nil
		}
		return fmt.Errorf("article: read metadata index: %w", err)
	}
	if metaFile.Type != github.TypeFile {
		return nil
	}

	raw, err := metaFile.Bytes()
	if err != nil {
		return fmt.Errorf("article: decode metadata index: %w", err)
	}

	meta := []MetaEntry{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("article: parse metadata index: %w", err)
	}

	kept := make([]MetaEntry, 0, len(meta))
	for _, entry := range meta {
		if keep(entry) {
			kept = append(kept, entry)
		}
	}

	// Nothing matched: silent no-op, no write performed.
	if len(kept) == len(meta) {
		return nil
	}

	newContent, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("article: encode metadata index: %w", err)
	}

	if _, err := client.PutContents(ctx, constants.MetaFilePath, newContent, message, metaFile.SHA, repository.branch); err != nil {
		if github.IsConflict(err) {
			conflict := apperr.Conflict("The metadata index changed during the removal; retry from the latest state")
			conflict.Cause = err
			return conflict
		}
		return fmt.Errorf("article: write metadata index: %w", err)
	}
	return nil
}

// readMetaFile reads and parses the index via the single-file endpoint.
// found is false when the file is absent or not a regular file.
func (repository *GitHubRepository) readMetaFile(ctx context.Context, client *github.Client) (meta []MetaEntry, found bool, err error) {
	metaFile, err := client.GetContents(ctx, constants.MetaFilePath, repository.branch)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("article: read metadata index: %w", err)
	}
	if metaFile.Type != github.TypeFile {
		return nil, false, nil
	}

	raw, err := metaFile.Bytes()
	if err != nil {
		return nil, false, fmt.Errorf("article: decode metadata index: %w", err)
	}

	meta = []MetaEntry{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, false, fmt.Errorf("article: parse metadata index: %w", err)
	}
	return meta, true, nil
}
