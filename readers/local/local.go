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

// Package local implements Builder's filesystem reader: the fallback
// for any include reference that doesn't match another scheme
// (spec.md §6.3).
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/builder-lang/builder/reader"
)

// schemePrefixes lists the shorthand schemes other readers claim, so
// Reader can correctly decline references meant for them even though
// it is typically registered last as the catch-all.
var schemePrefixes = []string{
	"github:", "git-azure-repos:", "git-local:", "bitbucket-server:",
}

// Reader reads include references as paths relative to Root.
type Reader struct {
	Root string
}

// New returns a local filesystem Reader rooted at root.
func New(root string) *Reader {
	return &Reader{Root: root}
}

func (r *Reader) Supports(ref string) bool {
	if strings.Contains(ref, "://") {
		return false
	}
	for _, p := range schemePrefixes {
		if strings.HasPrefix(ref, p) {
			return false
		}
	}
	if strings.Contains(ref, ".git/") || strings.Contains(ref, ".git@") {
		return false
	}
	return true
}

func (r *Reader) ParsePath(ref string) (reader.PathMeta, error) {
	full := ref
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.Root, ref)
	}
	full = filepath.Clean(full)

	root := filepath.Clean(r.Root)
	inRoot, err := MatchGlob(filepath.ToSlash(root)+"/**", filepath.ToSlash(full))
	if err != nil {
		return reader.PathMeta{}, fmt.Errorf("matching %q against root %q: %w", full, root, err)
	}
	if !inRoot && full != root {
		return reader.PathMeta{}, fmt.Errorf("%q escapes reader root %q", ref, root)
	}

	return reader.PathMeta{File: full, Path: full}, nil
}

func (r *Reader) Read(ctx context.Context, ref string, rctx reader.Context) (reader.ReadResult, error) {
	meta, err := r.ParsePath(ref)
	if err != nil {
		return reader.ReadResult{}, err
	}
	data, err := os.ReadFile(meta.File)
	if err != nil {
		return reader.ReadResult{}, err
	}
	return reader.ReadResult{Text: string(data)}, nil
}

// MatchGlob reports whether the slash-separated path rel matches
// pattern, using doublestar so "**" matches any number of path
// segments. ParsePath uses it with absolute paths for its root check.
func MatchGlob(pattern, rel string) (bool, error) {
	return doublestar.Match(pattern, rel)
}
