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

package builder

import "github.com/builder-lang/builder/reader"

// Config holds the driver's run-time switches (SPEC_FULL.md §6.3,
// spec.md §5).
type Config struct {
	// RemoteRelativeIncludes allows an include reference written
	// without a scheme, inside a file that was itself fetched
	// remotely, to resolve relative to that remote location instead of
	// always falling back to the top-level local directory.
	RemoteRelativeIncludes bool
	// GenerateLineControlStatements enables emission of "#line N file"
	// markers whenever output crosses a non-contiguous (file, line).
	GenerateLineControlStatements bool
	// ClearCache drops the driver's per-reference read cache at the
	// start of every Execute call instead of reusing it across calls.
	ClearCache bool
	// SaveDependencies enables recording newly resolved commit pins
	// into Dependencies as includes are read.
	SaveDependencies bool
}

// Context bundles the per-run collaborators Execute needs beyond the
// source text itself.
type Context struct {
	Credentials map[string]reader.Credential
}
