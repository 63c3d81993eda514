// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package githubtest runs an in-memory stand-in for the slice of the GitHub
// REST API the platform talks to: the git data endpoints (refs, trees,
// blobs, commits) and the single-file contents endpoints.
//
// # Fidelity
//
// The fake enforces the same write semantics as the real service: a ref
// update succeeds only as a fast-forward (422 otherwise), and a contents
// write with a stale blob sha is rejected with 409. Objects created through
// the blob/tree/commit endpoints stay unreachable until a ref points at
// them, so tests can assert that aborted transactions leave no trace.
package githubtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

// # Object Store

type entry struct {
	Mode string
	Type string
	SHA  string
}

type commit struct {
	Tree    string
	Parents []string
	Message string
}

// Server is the fake API plus its backing object store.
//
// All exported methods are safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	trees    map[string]map[string]entry // tree sha → name → entry
	commits  map[string]commit
	refs     map[string]string // branch → commit sha
	messages []string
	seq      int

	httpServer *httptest.Server

	// AfterGetRef, when set, runs after every successful ref lookup. Tests
	// use it to slip a competing commit in between a reader's snapshot and
	// its ref update.
	AfterGetRef func()
}

// NewServer starts the fake API. Callers must Close it.
func NewServer() *Server {
	server := &Server{
		blobs:   make(map[string][]byte),
		trees:   make(map[string]map[string]entry),
		commits: make(map[string]commit),
		refs:    make(map[string]string),
	}
	server.httpServer = httptest.NewServer(http.HandlerFunc(server.handle))
	return server
}

// URL returns the base URL to hand to the client under test.
func (s *Server) URL() string { return s.httpServer.URL }

// Close shuts the HTTP listener down.
func (s *Server) Close() { s.httpServer.Close() }

// # Seeding and Inspection

// Seed installs an initial commit containing the given files and points
// branch at it. It returns the commit sha.
func (s *Server) Seed(branch string, files map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rootSHA := ""
	for path, content := range files {
		blobSHA := s.putBlob([]byte(content))
		rootSHA = s.applyEntry(rootSHA, strings.Split(path, "/"), entry{Mode: "100644", Type: "blob", SHA: blobSHA})
	}
	if rootSHA == "" {
		rootSHA = s.putTree(map[string]entry{})
	}

	commitSHA := s.putCommit(rootSHA, nil, "seed")
	s.refs[branch] = commitSHA
	return commitSHA
}

// Head returns the commit sha the branch currently points at.
func (s *Server) Head(branch string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[branch]
}

// FileAt reads a file out of the branch head snapshot.
func (s *Server) FileAt(branch, path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.resolvePath(s.refs[branch], path)
	if !ok || found.Type != "blob" {
		return "", false
	}
	return string(s.blobs[found.SHA]), true
}

// Messages returns every commit message installed by a ref move, oldest first.
func (s *Server) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// WriteFile commits a single-file change directly to branch, bypassing the
// HTTP surface. Tests use it (often from AfterGetRef) to simulate a
// concurrent writer.
func (s *Server) WriteFile(branch, path, content, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.refs[branch]
	rootSHA := ""
	if head != "" {
		rootSHA = s.commits[head].Tree
	}

	blobSHA := s.putBlob([]byte(content))
	newRoot := s.applyEntry(rootSHA, strings.Split(path, "/"), entry{Mode: "100644", Type: "blob", SHA: blobSHA})

	var parents []string
	if head != "" {
		parents = []string{head}
	}
	commitSHA := s.putCommit(newRoot, parents, message)
	s.refs[branch] = commitSHA
	s.messages = append(s.messages, message)
}

// # Store Primitives (callers hold s.mu)

func (s *Server) newSHA() string {
	s.seq++
	return fmt.Sprintf("%040x", s.seq)
}

func (s *Server) putBlob(content []byte) string {
	sha := s.newSHA()
	s.blobs[sha] = content
	return sha
}

func (s *Server) putTree(entries map[string]entry) string {
	sha := s.newSHA()
	s.trees[sha] = entries
	return sha
}

func (s *Server) putCommit(tree string, parents []string, message string) string {
	sha := s.newSHA()
	s.commits[sha] = commit{Tree: tree, Parents: parents, Message: message}
	return sha
}

// applyEntry returns the sha of a new tree equal to baseSHA with one path
// replaced. Intermediate trees are created as needed; the base trees are
// never mutated.
func (s *Server) applyEntry(baseSHA string, path []string, leaf entry) string {
	entries := make(map[string]entry)
	if baseSHA != "" {
		for name, existing := range s.trees[baseSHA] {
			entries[name] = existing
		}
	}

	name := path[0]
	if len(path) == 1 {
		if leaf.SHA == "" {
			delete(entries, name)
		} else {
			entries[name] = leaf
		}
		return s.putTree(entries)
	}

	childSHA := ""
	if child, ok := entries[name]; ok && child.Type == "tree" {
		childSHA = child.SHA
	}
	newChild := s.applyEntry(childSHA, path[1:], leaf)
	entries[name] = entry{Mode: "040000", Type: "tree", SHA: newChild}
	return s.putTree(entries)
}

// resolveTree maps a commit or tree sha to a tree sha.
func (s *Server) resolveTree(sha string) (string, bool) {
	if c, ok := s.commits[sha]; ok {
		sha = c.Tree
	}
	_, ok := s.trees[sha]
	return sha, ok
}

// resolvePath walks a slash-separated path from a commit's root tree.
func (s *Server) resolvePath(commitSHA, path string) (entry, bool) {
	c, ok := s.commits[commitSHA]
	if !ok {
		return entry{}, false
	}

	current := entry{Mode: "040000", Type: "tree", SHA: c.Tree}
	for _, segment := range strings.Split(path, "/") {
		if current.Type != "tree" {
			return entry{}, false
		}
		next, ok := s.trees[current.SHA][segment]
		if !ok {
			return entry{}, false
		}
		current = next
	}
	return current, true
}

// # HTTP Surface

type jsonEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

func (s *Server) handle(writer http.ResponseWriter, request *http.Request) {
	rest, ok := strings.CutPrefix(request.URL.Path, "/repos/")
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	// Strip "<owner>/<repo>/".
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	resource := parts[2]

	switch {
	case strings.HasPrefix(resource, "git/ref/heads/") && request.Method == http.MethodGet:
		s.handleGetRef(writer, strings.TrimPrefix(resource, "git/ref/heads/"))
	case strings.HasPrefix(resource, "git/refs/heads/") && request.Method == http.MethodPatch:
		s.handleUpdateRef(writer, request, strings.TrimPrefix(resource, "git/refs/heads/"))
	case resource == "git/blobs" && request.Method == http.MethodPost:
		s.handleCreateBlob(writer, request)
	case strings.HasPrefix(resource, "git/blobs/") && request.Method == http.MethodGet:
		s.handleGetBlob(writer, strings.TrimPrefix(resource, "git/blobs/"))
	case resource == "git/trees" && request.Method == http.MethodPost:
		s.handleCreateTree(writer, request)
	case strings.HasPrefix(resource, "git/trees/") && request.Method == http.MethodGet:
		s.handleGetTree(writer, request, strings.TrimPrefix(resource, "git/trees/"))
	case resource == "git/commits" && request.Method == http.MethodPost:
		s.handleCreateCommit(writer, request)
	case strings.HasPrefix(resource, "contents/"):
		s.handleContents(writer, request, strings.TrimPrefix(resource, "contents/"))
	default:
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func (s *Server) handleGetRef(writer http.ResponseWriter, branch string) {
	s.mu.Lock()
	head, ok := s.refs[branch]
	s.mu.Unlock()

	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	writeJSON(writer, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]string{"sha": head, "type": "commit"},
	})

	if s.AfterGetRef != nil {
		s.AfterGetRef()
	}
}

func (s *Server) handleUpdateRef(writer http.ResponseWriter, request *http.Request, branch string) {
	var body struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Bad Request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	head, ok := s.refs[branch]
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	next, ok := s.commits[body.SHA]
	if !ok {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]string{"message": "Object does not exist"})
		return
	}

	// Fast-forward only: the new commit's parent must be the current head.
	isFastForward := false
	for _, parent := range next.Parents {
		if parent == head {
			isFastForward = true
		}
	}
	if !isFastForward {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]string{"message": "Update is not a fast forward"})
		return
	}

	s.refs[branch] = body.SHA
	s.messages = append(s.messages, next.Message)
	writeJSON(writer, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]string{"sha": body.SHA, "type": "commit"},
	})
}

func (s *Server) handleCreateBlob(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Bad Request"})
		return
	}

	content := []byte(body.Content)
	if body.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Invalid base64"})
			return
		}
		content = decoded
	}

	s.mu.Lock()
	sha := s.putBlob(content)
	s.mu.Unlock()

	writeJSON(writer, http.StatusCreated, map[string]string{"sha": sha})
}

func (s *Server) handleGetBlob(writer http.ResponseWriter, sha string) {
	s.mu.Lock()
	content, ok := s.blobs[sha]
	s.mu.Unlock()

	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	writeJSON(writer, http.StatusOK, map[string]any{
		"sha":      sha,
		"size":     len(content),
		"content":  base64.StdEncoding.EncodeToString(content),
		"encoding": "base64",
	})
}

func (s *Server) handleCreateTree(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		BaseTree string      `json:"base_tree"`
		Tree     []jsonEntry `json:"tree"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Bad Request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	baseSHA := ""
	if body.BaseTree != "" {
		resolved, ok := s.resolveTree(body.BaseTree)
		if !ok {
			writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		baseSHA = resolved
	}

	current := baseSHA
	for _, override := range body.Tree {
		current = s.applyEntry(current, strings.Split(override.Path, "/"), entry{
			Mode: override.Mode,
			Type: override.Type,
			SHA:  override.SHA,
		})
	}
	if current == "" {
		current = s.putTree(map[string]entry{})
	}

	writeJSON(writer, http.StatusCreated, map[string]string{"sha": current})
}

func (s *Server) handleGetTree(writer http.ResponseWriter, request *http.Request, sha string) {
	recursive := request.URL.Query().Get("recursive") != ""

	s.mu.Lock()
	defer s.mu.Unlock()

	treeSHA, ok := s.resolveTree(sha)
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	var listed []jsonEntry
	s.listTree(treeSHA, "", recursive, &listed)
	sort.Slice(listed, func(i, j int) bool { return listed[i].Path < listed[j].Path })

	writeJSON(writer, http.StatusOK, map[string]any{
		"sha":       treeSHA,
		"tree":      listed,
		"truncated": false,
	})
}

// listTree appends the entries of treeSHA to out, recursing into subtrees
// when asked. Callers hold s.mu.
func (s *Server) listTree(treeSHA, prefix string, recursive bool, out *[]jsonEntry) {
	for name, e := range s.trees[treeSHA] {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}

		row := jsonEntry{Path: path, Mode: e.Mode, Type: e.Type, SHA: e.SHA}
		if e.Type == "blob" {
			row.Size = int64(len(s.blobs[e.SHA]))
		}
		*out = append(*out, row)

		if recursive && e.Type == "tree" {
			s.listTree(e.SHA, path, recursive, out)
		}
	}
}

func (s *Server) handleCreateCommit(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Bad Request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trees[body.Tree]; !ok {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]string{"message": "Tree does not exist"})
		return
	}

	sha := s.putCommit(body.Tree, body.Parents, body.Message)
	writeJSON(writer, http.StatusCreated, map[string]string{"sha": sha})
}

func (s *Server) handleContents(writer http.ResponseWriter, request *http.Request, filePath string) {
	switch request.Method {
	case http.MethodGet:
		s.handleGetContents(writer, request, filePath)
	case http.MethodPut:
		s.handlePutContents(writer, request, filePath)
	default:
		writeJSON(writer, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
	}
}

func (s *Server) handleGetContents(writer http.ResponseWriter, request *http.Request, filePath string) {
	branch := request.URL.Query().Get("ref")
	if branch == "" {
		branch = "main"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	head, ok := s.refs[branch]
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	found, ok := s.resolvePath(head, filePath)
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	if found.Type == "tree" {
		// Directory listings come back as a JSON array.
		var listed []jsonEntry
		s.listTree(found.SHA, filePath, false, &listed)
		writeJSON(writer, http.StatusOK, listed)
		return
	}

	content := s.blobs[found.SHA]
	writeJSON(writer, http.StatusOK, map[string]any{
		"type":         "file",
		"path":         filePath,
		"sha":          found.SHA,
		"size":         len(content),
		"content":      base64.StdEncoding.EncodeToString(content),
		"encoding":     "base64",
		"download_url": s.httpServer.URL + "/raw/" + filePath,
	})
}

func (s *Server) handlePutContents(writer http.ResponseWriter, request *http.Request, filePath string) {
	var body struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Bad Request"})
		return
	}

	branch := body.Branch
	if branch == "" {
		branch = "main"
	}

	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Invalid base64"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	head, ok := s.refs[branch]
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	// Optimistic-concurrency checks mirror the real service.
	existing, exists := s.resolvePath(head, filePath)
	if exists && body.SHA == "" {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]string{"message": `"sha" wasn't supplied`})
		return
	}
	if body.SHA != "" && (!exists || existing.SHA != body.SHA) {
		writeJSON(writer, http.StatusConflict, map[string]string{"message": filePath + " does not match " + body.SHA})
		return
	}

	blobSHA := s.putBlob(content)
	newRoot := s.applyEntry(s.commits[head].Tree, strings.Split(filePath, "/"), entry{Mode: "100644", Type: "blob", SHA: blobSHA})
	commitSHA := s.putCommit(newRoot, []string{head}, body.Message)
	s.refs[branch] = commitSHA
	s.messages = append(s.messages, body.Message)

	status := http.StatusCreated
	if exists {
		status = http.StatusOK
	}
	writeJSON(writer, status, map[string]any{
		"content": map[string]any{
			"type":         "file",
			"path":         filePath,
			"sha":          blobSHA,
			"size":         len(content),
			"download_url": s.httpServer.URL + "/raw/" + filePath,
		},
		"commit": map[string]string{"sha": commitSHA, "type": "commit"},
	})
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}
