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
	"path"
	"strings"

	"github.com/builder-lang/builder/reader"
)

// GenericReader implements the "<repo-url>.git/<path>[@ref]" grammar
// (spec.md §6.3), usable against any Git host, not just the four
// named providers.
type GenericReader struct {
	Core *Core
}

// NewGenericReader returns a reader caching clones under core.
func NewGenericReader(core *Core) *GenericReader {
	return &GenericReader{Core: core}
}

func (r *GenericReader) Supports(ref string) bool {
	return strings.Contains(ref, ".git/")
}

func (r *GenericReader) split(ref string) (repoURL, relPath, refName string, err error) {
	i := strings.Index(ref, ".git/")
	if i < 0 {
		return "", "", "", fmt.Errorf("%q is not a generic Git reference", ref)
	}
	repoURL = ref[:i+4]
	rest, refFound := splitRefSuffix(ref[i+5:])
	return repoURL, rest, refFound, nil
}

func (r *GenericReader) ParsePath(ref string) (reader.PathMeta, error) {
	repoURL, relPath, refName, err := r.split(ref)
	if err != nil {
		return reader.PathMeta{}, err
	}
	canon := CanonicalURL(repoURL)
	return reader.PathMeta{
		File:       fmt.Sprintf("%s/%s@%s", canon, relPath, refName),
		Path:       fmt.Sprintf("%s/%s@%s", canon, path.Dir(relPath), refName),
		RepoRef:    refName,
		RepoPrefix: canon,
	}, nil
}

func (r *GenericReader) Read(ctx context.Context, ref string, rctx reader.Context) (reader.ReadResult, error) {
	repoURL, relPath, refName, err := r.split(ref)
	if err != nil {
		return reader.ReadResult{}, err
	}
	text, commitID, err := r.Core.Read(ctx, CanonicalURL(repoURL), refName, relPath)
	if err != nil {
		return reader.ReadResult{}, err
	}
	return reader.ReadResult{Text: text, CommitID: commitID}, nil
}

// WithPin implements reader.Pinner: it rewrites ref's trailing
// "[@ref]" segment to read "@commitID" instead.
func (r *GenericReader) WithPin(ref, commitID string) string {
	repoURL, relPath, _, err := r.split(ref)
	if err != nil {
		return ref
	}
	return fmt.Sprintf("%s/%s@%s", repoURL, relPath, commitID)
}
