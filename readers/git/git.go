// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package git implements Builder's Git-backed readers: the generic
// "<repo-url>.git/<path>[@ref]" grammar and the four provider
// shorthand schemes (spec.md §6.3). Git plumbing itself is an external
// collaborator the spec deliberately leaves unconstrained (spec.md
// §1); this package shells out to the system "git" binary the way the
// teacher's own indexing tools invoke external resolvers, rather than
// reimplementing the smart-HTTP/pack-file protocol.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
	"golang.org/x/tools/go/vcs"

	"github.com/builder-lang/builder/internal/collections"
)

// clone is a shared bare mirror of one repository, fetched at most
// once per Reader regardless of how many refs/paths are read from it.
type clone struct {
	mu       sync.Mutex
	dir      string
	repoURL  string
	fetched  bool
}

// Core is the shared fetch implementation every Git-family reader
// delegates to once it has parsed its own reference grammar into a
// (repoURL, ref, path) triple.
type Core struct {
	// CacheDir holds the bare mirrors this reader clones into. Each
	// repository gets one subdirectory, keyed by a sanitized form of
	// its URL, so repeated includes from the same repo reuse one
	// clone (spec.md §5, "Resource policy").
	CacheDir string

	mu     sync.Mutex
	clones map[string]*clone
}

// NewCore returns a Core caching clones under cacheDir.
func NewCore(cacheDir string) *Core {
	return &Core{CacheDir: cacheDir, clones: map[string]*clone{}}
}

func (c *Core) cloneFor(repoURL string) *clone {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clones[repoURL]; ok {
		return cl
	}
	dir := filepath.Join(c.CacheDir, sanitize(repoURL))
	cl := &clone{dir: dir, repoURL: repoURL}
	c.clones[repoURL] = cl
	return cl
}

func sanitize(s string) string {
	r := strings.NewReplacer("://", "_", "/", "_", ":", "_", "@", "_")
	return r.Replace(s)
}

// ensureFetched clones repoURL as a bare mirror when no mirror exists
// on disk yet, or fetches updates into the existing mirror otherwise.
// Either happens at most once per clone; later calls return at once.
func (cl *clone) ensureFetched(ctx context.Context) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.fetched {
		return nil
	}
	if _, err := os.Stat(cl.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cl.dir), 0o755); err != nil {
			return err
		}
		if err := runGit(ctx, "", "clone", "--bare", cl.repoURL, cl.dir); err != nil {
			return fmt.Errorf("cloning %s: %w", cl.repoURL, err)
		}
	} else {
		if err := runGit(ctx, cl.dir, "fetch", "--tags", "--force", "origin", "+refs/heads/*:refs/heads/*"); err != nil {
			return fmt.Errorf("fetching %s: %w", cl.repoURL, err)
		}
	}
	cl.fetched = true
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	_, err := runGitOutput(ctx, dir, args...)
	return err
}

func runGitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, errBuf.String())
	}
	return out.String(), nil
}

// ResolveRef resolves ref ("latest", a branch, a tag, or a commit SHA)
// against repoURL's clone to a concrete commit ID. "latest" selects
// the lexicographically greatest tag by semantic-version ordering
// (spec.md §6.3), taking the last tag of listTags' tagEntry.Less order.
func (c *Core) ResolveRef(ctx context.Context, repoURL, ref string) (commitID string, err error) {
	cl := c.cloneFor(repoURL)
	if err := cl.ensureFetched(ctx); err != nil {
		return "", err
	}
	target := ref
	if ref == "latest" || ref == "" {
		tags, err := c.listTags(ctx, cl)
		if err != nil {
			return "", err
		}
		if len(tags) == 0 {
			return "", fmt.Errorf("no tags found in %s to resolve \"latest\"", repoURL)
		}
		target = tags[len(tags)-1]
	}
	out, err := runGitOutput(ctx, cl.dir, "rev-parse", target)
	if err != nil {
		return "", fmt.Errorf("resolving ref %q in %s: %w", ref, repoURL, err)
	}
	return strings.TrimSpace(out), nil
}

// tagEntry pairs a raw tag name with its semver-normalized form, if
// any, so it can be ordered with collections.PriorityQueue the way
// spec.md §9's "latest" open question resolves it: non-semver tags
// always sort before any semver tag, each partition ordered among
// itself (semver.Compare for semver, lexicographic otherwise).
type tagEntry struct {
	raw    string
	normal string // "v"-prefixed normalized form; empty if not valid semver
}

// Less implements collections.Ordered: draining the queue yields tags
// in ascending "latest" precedence.
func (t tagEntry) Less(other tagEntry) bool {
	if (t.normal == "") != (other.normal == "") {
		return t.normal == ""
	}
	if t.normal == "" {
		return t.raw < other.raw
	}
	return semver.Compare(t.normal, other.normal) < 0
}

// listTags returns repoURL's tags ordered ascending by "latest"
// precedence (tagEntry.Less).
func (c *Core) listTags(ctx context.Context, cl *clone) ([]string, error) {
	out, err := runGitOutput(ctx, cl.dir, "tag", "--list")
	if err != nil {
		return nil, err
	}
	var entries []tagEntry
	for _, t := range strings.Split(strings.TrimSpace(out), "\n") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		v := t
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			entries = append(entries, tagEntry{raw: t, normal: v})
		} else {
			entries = append(entries, tagEntry{raw: t})
		}
	}
	queue := collections.NewPriorityQueue(entries)
	tags := make([]string, 0, len(entries))
	for !queue.Empty() {
		tags = append(tags, queue.Pop().raw)
	}
	return tags, nil
}

// Read fetches relPath from repoURL at ref, returning its resolved
// commit ID alongside the text.
func (c *Core) Read(ctx context.Context, repoURL, ref, relPath string) (text, commitID string, err error) {
	cl := c.cloneFor(repoURL)
	if err := cl.ensureFetched(ctx); err != nil {
		return "", "", err
	}
	commitID, err = c.ResolveRef(ctx, repoURL, ref)
	if err != nil {
		return "", "", err
	}
	out, err := runGitOutput(ctx, cl.dir, "show", commitID+":"+relPath)
	if err != nil {
		return "", "", fmt.Errorf("reading %s@%s: %w", relPath, ref, err)
	}
	return out, commitID, nil
}

// CanonicalURL normalizes a generic repo reference to a fetchable URL,
// using the same repo-root detection the teacher's module-resolution
// tooling relies on for Go import paths. A leading http:// or https://
// is dropped before detection; a reference that is not import-path
// shaped (an SCP-like "git@host:org/repo" form, for one) or whose root
// is not a Git repository is returned unchanged.
func CanonicalURL(repoURL string) string {
	if root, err := vcs.RepoRootForImportPath(strings.TrimPrefix(strings.TrimPrefix(repoURL, "https://"), "http://"), false); err == nil && root.VCS.Cmd == "git" {
		return root.Repo
	}
	return repoURL
}

// splitRefSuffix splits "...[@ref]" off the end of s. If no "@"
// suffix is present, ref is "latest".
func splitRefSuffix(s string) (rest, ref string) {
	if i := strings.LastIndex(s, "@"); i >= 0 && !strings.ContainsAny(s[i:], "/") {
		return s[:i], s[i+1:]
	}
	return s, "latest"
}
