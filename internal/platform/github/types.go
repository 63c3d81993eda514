// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package github

import (
	"encoding/base64"
	"strings"
)

// # Git Object Modes

const (
	// ModeFile is the tree entry mode of a regular (non-executable) blob.
	ModeFile = "100644"

	// ModeDirectory is the tree entry mode of a subtree entry.
	ModeDirectory = "040000"
)

// # Git Object Types

const (
	TypeBlob = "blob"
	TypeTree = "tree"
	TypeFile = "file"
	TypeDir  = "dir"
)

// Ref is a named pointer to a git object, normally a branch head commit.
type Ref struct {
	Ref    string    `json:"ref"`
	Object RefObject `json:"object"`
}

// RefObject is the commit a [Ref] points at.
type RefObject struct {
	SHA  string `json:"sha"`
	Type string `json:"type"`
}

// TreeEntry is a single (path, mode, type, sha) row of a git tree.
//
// Size is only populated for blob entries and only on reads.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

// Tree is a content-addressed directory listing.
type Tree struct {
	SHA       string      `json:"sha"`
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Blob is content-addressed raw file content, transferred base64-encoded.
type Blob struct {
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Commit is an immutable snapshot referencing one tree and its parent commits.
type Commit struct {
	SHA     string      `json:"sha"`
	Message string      `json:"message"`
	Tree    RefObject   `json:"tree"`
	Parents []RefObject `json:"parents"`
}

// FileContent is the response of the single-file contents endpoint.
//
// Type is "file" for regular files; directories and symlinks come back with
// other type values and an empty Content.
type FileContent struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	Content     string `json:"content"`
	Encoding    string `json:"encoding"`
	DownloadURL string `json:"download_url"`
}

// Bytes decodes the blob's base64 content.
func (blob *Blob) Bytes() ([]byte, error) {
	return decodeBase64(blob.Content)
}

// Bytes decodes the file's base64 content.
func (content *FileContent) Bytes() ([]byte, error) {
	return decodeBase64(content.Content)
}

// decodeBase64 handles the line-wrapped base64 GitHub produces for larger objects.
func decodeBase64(encoded string) ([]byte, error) {
	cleaned := strings.ReplaceAll(encoded, "\n", "")
	return base64.StdEncoding.DecodeString(cleaned)
}

// PutResult is the response of a single-file contents write.
type PutResult struct {
	Content *FileContent `json:"content"`
	Commit  RefObject    `json:"commit"`
}
