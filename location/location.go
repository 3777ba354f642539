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

// Package location tracks positions within the sources Builder
// processes: a file identifier plus a one-based line and column.
package location

import (
	"fmt"
	"strings"
)

// Location describes a resolved position within a displayable source.
// File is not necessarily a filesystem path: it may be an HTTP(S) URL
// or a git-<host>:<org>/<repo>/<path> identifier.
type Location struct {
	File string
	Line int
	Col  int
}

// Init is the position at the beginning of a source.
func Init(file string) Location {
	return Location{File: file, Line: 1, Col: 1}
}

// String renders the location as "file:line:col".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// AdvancedBy returns a new Location advanced by lookAhead, assuming the
// receiver points at the start of lookAhead. Newlines in lookAhead
// increment the line number and reset the column; other runes advance
// the column.
func (l Location) AdvancedBy(lookAhead string) Location {
	if n := strings.Count(lookAhead, "\n"); n > 0 {
		tailBegin := 1 + strings.LastIndex(lookAhead, "\n")
		l.Line += n
		l.Col = 1 + len([]rune(lookAhead[tailBegin:]))
		return l
	}
	l.Col += len([]rune(lookAhead))
	return l
}

// NextLine returns the location at the start of the following line.
func (l Location) NextLine() Location {
	return Location{File: l.File, Line: l.Line + 1, Col: 1}
}

// WithFile returns a copy of l pointing at a different displayable
// file identifier, used when a reader resolves a reference to its
// canonical id.
func (l Location) WithFile(file string) Location {
	l.File = file
	return l
}
