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

// Package reader defines the capability contract Builder's core
// requires of include sources, and a Registry that dispatches an
// include reference to the first reader that supports it.
//
// Concrete network/filesystem implementations are deliberately kept
// out of this package (spec.md §1, "out of scope: external
// collaborators") — see the sibling readers/ package.
package reader

import "context"

// PathMeta carries the location metadata a reader assigns to a
// resolved reference: the displayable __FILE__ identifier, the
// path used for further relative resolution, and (for repository
// readers) the effective ref and repo-relative path prefix.
type PathMeta struct {
	File       string
	Path       string
	RepoRef    string // set for Git readers
	RepoPrefix string // set for Git readers
}

// ReadResult is what a reader returns for a successfully read
// reference.
type ReadResult struct {
	Text     string
	CommitID string // set for Git readers when available
}

// Credential carries optional auth material a reader may need.
type Credential struct {
	Username string
	Password string
	Token    string
}

// Context is passed to every Read call. Dependencies, when non-nil,
// is the live dependency map the driver is reading/recording pins
// into (spec.md §4.5 step 4).
type Context struct {
	Dependencies map[string]string
	Credentials  map[string]Credential
}

// Reader is the capability contract an include source implements.
// Implementations are registered in a Registry in a fixed order; the
// first whose Supports returns true for a given ref wins.
type Reader interface {
	// Supports reports whether this reader recognizes ref's syntax.
	Supports(ref string) bool
	// ParsePath derives the PathMeta for ref without reading it.
	ParsePath(ref string) (PathMeta, error)
	// Read fetches ref's contents. ctx carries dependency-pinning and
	// credential material; implementations that resolve a commit ID
	// should populate ReadResult.CommitID.
	Read(ctx context.Context, ref string, rctx Context) (ReadResult, error)
}

// Pinner is implemented by readers whose references carry a mutable
// ref segment (a branch or tag) that dependency pinning can freeze to
// a concrete commit. Readers that have no such concept (local,
// plain HTTP) simply don't implement it; the driver checks via a type
// assertion before attempting to pin.
type Pinner interface {
	// WithPin returns ref rewritten so its ref segment reads commitID
	// instead of whatever it originally named.
	WithPin(ref string, commitID string) string
}

// Registry dispatches include references to the first registered
// Reader whose Supports(ref) returns true, in registration order.
type Registry struct {
	readers []Reader
}

// NewRegistry returns a Registry with readers registered in order;
// earlier entries take priority (spec.md §4.5 step 2).
func NewRegistry(readers ...Reader) *Registry {
	return &Registry{readers: readers}
}

// Register appends a reader to the end of the dispatch order.
func (r *Registry) Register(rd Reader) {
	r.readers = append(r.readers, rd)
}

// Resolve returns the first reader supporting ref, or nil if none do.
func (r *Registry) Resolve(ref string) Reader {
	for _, rd := range r.readers {
		if rd.Supports(ref) {
			return rd
		}
	}
	return nil
}
