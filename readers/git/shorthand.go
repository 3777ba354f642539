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

package git

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/builder-lang/builder/reader"
)

// fixedSegmentReader implements the three provider shorthand schemes
// whose reference grammar is "<scheme>:<N fixed path segments>/<file
// path>[@ref]" (spec.md §6.3): github (org/repo), git-azure-repos
// (org/project/repo) and bitbucket-server (project/repo). Each only
// differs in its scheme prefix, its fixed segment count, and how it
// turns the fixed segments into a clone URL.
type fixedSegmentReader struct {
	scheme   string
	segments int
	core     *Core
	repoURL  func(segs []string) string
}

func (r *fixedSegmentReader) Supports(ref string) bool {
	return strings.HasPrefix(ref, r.scheme+":")
}

func (r *fixedSegmentReader) split(ref string) (repoURL, relPath, refName string, err error) {
	body := strings.TrimPrefix(ref, r.scheme+":")
	parts := strings.SplitN(body, "/", r.segments+1)
	if len(parts) <= r.segments {
		return "", "", "", fmt.Errorf("%q is missing a file path after its %d repository segments", ref, r.segments)
	}
	rest, refFound := splitRefSuffix(parts[r.segments])
	return r.repoURL(parts[:r.segments]), rest, refFound, nil
}

func (r *fixedSegmentReader) ParsePath(ref string) (reader.PathMeta, error) {
	repoURL, relPath, refName, err := r.split(ref)
	if err != nil {
		return reader.PathMeta{}, err
	}
	return reader.PathMeta{
		File:       fmt.Sprintf("%s/%s@%s", repoURL, relPath, refName),
		Path:       fmt.Sprintf("%s/%s@%s", repoURL, path.Dir(relPath), refName),
		RepoRef:    refName,
		RepoPrefix: repoURL,
	}, nil
}

func (r *fixedSegmentReader) Read(ctx context.Context, ref string, rctx reader.Context) (reader.ReadResult, error) {
	repoURL, relPath, refName, err := r.split(ref)
	if err != nil {
		return reader.ReadResult{}, err
	}
	text, commitID, err := r.core.Read(ctx, repoURL, refName, relPath)
	if err != nil {
		return reader.ReadResult{}, err
	}
	return reader.ReadResult{Text: text, CommitID: commitID}, nil
}

func (r *fixedSegmentReader) WithPin(ref, commitID string) string {
	if _, _, _, err := r.split(ref); err != nil {
		return ref
	}
	body, _ := splitRefSuffix(strings.TrimPrefix(ref, r.scheme+":"))
	return fmt.Sprintf("%s:%s@%s", r.scheme, body, commitID)
}

// NewGitHubReader implements "github:<org>/<repo>/<path>[@ref]".
func NewGitHubReader(core *Core) reader.Reader {
	return &fixedSegmentReader{
		scheme: "github", segments: 2, core: core,
		repoURL: func(s []string) string { return fmt.Sprintf("https://github.com/%s/%s.git", s[0], s[1]) },
	}
}

// NewAzureReposReader implements
// "git-azure-repos:<org>/<project>/<repo>/<path>[@ref]". The canonical
// Azure reader traditionally shells out to the `az repos` CLI rather
// than speaking the REST API directly; this one instead clones the
// repo's plain Git remote, which needs no extra credential plumbing
// beyond what Core already handles.
func NewAzureReposReader(core *Core) reader.Reader {
	return &fixedSegmentReader{
		scheme: "git-azure-repos", segments: 3, core: core,
		repoURL: func(s []string) string {
			return fmt.Sprintf("https://dev.azure.com/%s/%s/_git/%s", s[0], s[1], s[2])
		},
	}
}

// NewBitbucketServerReader implements
// "bitbucket-server:<project>/<repo>/<path>[@ref]" against an
// on-premise Bitbucket Server instance reachable at baseURL (e.g.
// "https://bitbucket.example.com").
func NewBitbucketServerReader(core *Core, baseURL string) reader.Reader {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &fixedSegmentReader{
		scheme: "bitbucket-server", segments: 2, core: core,
		repoURL: func(s []string) string {
			return fmt.Sprintf("%s/scm/%s/%s.git", baseURL, s[0], s[1])
		},
	}
}

// LocalReader implements "git-local:<filesystem-repo>/<path>[@ref]".
// Unlike the other shorthands, the repo/file-path boundary isn't a
// fixed segment count: it probes ancestor directories for a ".git"
// the way a working-tree-relative git command would.
type LocalReader struct {
	core *Core
}

// NewLocalReader returns a reader for local bare or working-tree Git
// repositories addressed by filesystem path.
func NewLocalReader(core *Core) *LocalReader {
	return &LocalReader{core: core}
}

func (r *LocalReader) Supports(ref string) bool {
	return strings.HasPrefix(ref, "git-local:")
}

func (r *LocalReader) split(ref string) (repoURL, relPath, refName string, err error) {
	body, refFound := splitRefSuffix(strings.TrimPrefix(ref, "git-local:"))
	segs := strings.Split(body, "/")
	for n := len(segs) - 1; n >= 1; n-- {
		candidate := "/" + path.Join(segs[:n]...)
		if info, statErr := os.Stat(path.Join(candidate, ".git")); statErr == nil && info != nil {
			return candidate, path.Join(segs[n:]...), refFound, nil
		}
	}
	return "", "", "", fmt.Errorf("%q does not contain a discoverable Git repository root", ref)
}

func (r *LocalReader) ParsePath(ref string) (reader.PathMeta, error) {
	repoURL, relPath, refName, err := r.split(ref)
	if err != nil {
		return reader.PathMeta{}, err
	}
	return reader.PathMeta{
		File:       fmt.Sprintf("%s/%s@%s", repoURL, relPath, refName),
		Path:       fmt.Sprintf("%s/%s@%s", repoURL, path.Dir(relPath), refName),
		RepoRef:    refName,
		RepoPrefix: repoURL,
	}, nil
}

func (r *LocalReader) Read(ctx context.Context, ref string, rctx reader.Context) (reader.ReadResult, error) {
	repoURL, relPath, refName, err := r.split(ref)
	if err != nil {
		return reader.ReadResult{}, err
	}
	text, commitID, err := r.core.Read(ctx, repoURL, refName, relPath)
	if err != nil {
		return reader.ReadResult{}, err
	}
	return reader.ReadResult{Text: text, CommitID: commitID}, nil
}

func (r *LocalReader) WithPin(ref, commitID string) string {
	repoURL, relPath, _, err := r.split(ref)
	if err != nil {
		return ref
	}
	return fmt.Sprintf("git-local:%s/%s@%s", strings.TrimPrefix(repoURL, "/"), relPath, commitID)
}
