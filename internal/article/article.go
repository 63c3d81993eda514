// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package article defines the blog article domain and its git-backed storage.
//
// # Architecture
//
// An article is persisted as two files in the content repository: its full
// markdown body under public/blog/<slug>/index.md, and a metadata entry in
// the single index file public/meta.json. The two are always written
// together in one commit; the index lets the collection be listed without
// fetching any body.
package article

import "time"

// Article represents one blog post.
//
// # Rules
//   - Slug is the immutable primary key and the storage path segment.
//   - Actor is the creator's login, set once at creation.
//   - CreatedAt is stamped by [New] and never changes.
//   - UpdatedAt is nil until the first mutation via [Article.Update].
//
// JSON field names are camelCase to stay byte-compatible with index files
// written by earlier versions of the system.
type Article struct {
	Slug              string     `json:"slug"`
	Actor             string     `json:"actor"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary,omitempty"`
	Content           string     `json:"content"`
	CoverURL          string     `json:"coverUrl,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	Categories        []string   `json:"categories"`
	Tags              []string   `json:"tags"`
	UploadedImageURLs []string   `json:"uploadedImageUrls"`
}

// New constructs a freshly created [*Article], stamping CreatedAt.
func New(slug, actor, title, summary, content, coverURL string, categories, tags, uploadedImageURLs []string) *Article {
	return &Article{
		Slug:              slug,
		Actor:             actor,
		Title:             title,
		Summary:           summary,
		Content:           content,
		CoverURL:          coverURL,
		CreatedAt:         time.Now().UTC(),
		Categories:        nonNil(categories),
		Tags:              nonNil(tags),
		UploadedImageURLs: nonNil(uploadedImageURLs),
	}
}

// Update replaces the mutable fields in place and stamps UpdatedAt.
//
// Slug, Actor, and CreatedAt are deliberately untouchable.
func (article *Article) Update(title, summary, content, coverURL string, categories, tags, uploadedImageURLs []string) {
	updatedAt := time.Now().UTC()
	article.Title = title
	article.Summary = summary
	article.Content = content
	article.CoverURL = coverURL
	article.UpdatedAt = &updatedAt
	article.Categories = nonNil(categories)
	article.Tags = nonNil(tags)
	article.UploadedImageURLs = nonNil(uploadedImageURLs)
}

// MetaEntry is the index record for one article: every field except the body.
//
// # Invariant
//
// The index file is a single JSON array with at most one entry per slug.
// A new slug is inserted at the front; an existing slug is replaced in
// place, so beyond uniqueness the only defined order is most-recent-first.
type MetaEntry struct {
	Slug              string     `json:"slug"`
	Actor             string     `json:"actor"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary,omitempty"`
	CoverURL          string     `json:"coverUrl,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	Categories        []string   `json:"categories"`
	Tags              []string   `json:"tags"`
	UploadedImageURLs []string   `json:"uploadedImageUrls"`
}

// Meta projects the article's current fields into its index entry.
func (article *Article) Meta() MetaEntry {
	return MetaEntry{
		Slug:              article.Slug,
		Actor:             article.Actor,
		Title:             article.Title,
		Summary:           article.Summary,
		CoverURL:          article.CoverURL,
		CreatedAt:         article.CreatedAt,
		UpdatedAt:         article.UpdatedAt,
		Categories:        article.Categories,
		Tags:              article.Tags,
		UploadedImageURLs: article.UploadedImageURLs,
	}
}

// fromMeta joins an index entry with its fetched body into a full [*Article].
func fromMeta(entry MetaEntry, content string) *Article {
	return &Article{
		Slug:              entry.Slug,
		Actor:             entry.Actor,
		Title:             entry.Title,
		Summary:           entry.Summary,
		Content:           content,
		CoverURL:          entry.CoverURL,
		CreatedAt:         entry.CreatedAt,
		UpdatedAt:         entry.UpdatedAt,
		Categories:        nonNil(entry.Categories),
		Tags:              nonNil(entry.Tags),
		UploadedImageURLs: nonNil(entry.UploadedImageURLs),
	}
}

// nonNil normalizes a nil slice to an empty one so the index file always
// serializes arrays, never null.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
