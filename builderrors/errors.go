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

// Package builderrors defines the structured error kinds Builder's
// core raises. Every kind carries the location.Location at which it
// was detected and, for wrapping kinds, an underlying cause.
package builderrors

import (
	"fmt"

	"github.com/builder-lang/builder/location"
)

type (
	// SyntaxError reports an ill-formed directive: unclosed
	// @macro/@if, stray @elseif/@else/@endif, nested @macro, or a
	// malformed inline splice.
	SyntaxError struct {
		Loc     location.Location
		Message string
	}
	// ExprError reports an unparseable expression.
	ExprError struct {
		Loc     location.Location
		Message string
	}
	// TypeError reports an operator applied to incompatible operands
	// or a built-in called with the wrong arity/argument types.
	TypeError struct {
		Loc     location.Location
		Message string
	}
	// NameError reports a call to an unknown function. Unknown
	// variables are never an error (they evaluate to null).
	NameError struct {
		Loc  location.Location
		Name string
	}
	// CircularIncludeError reports that a resolved include identifier
	// is already on the active include-frame stack.
	CircularIncludeError struct {
		Loc        location.Location
		ResolvedID string
		Stack      []string
	}
	// UnknownSourceError reports that no registered reader supports a
	// given include reference.
	UnknownSourceError struct {
		Loc location.Location
		Ref string
	}
	// SourceReadingError wraps a reader failure: HTTP status, I/O,
	// timeout, or subprocess-exec failure.
	SourceReadingError struct {
		Loc Location
		Ref string
		Err error
	}
	// UserError is raised by an explicit @error directive.
	UserError struct {
		Loc     location.Location
		Message string
	}
)

// Location is an alias kept local so SourceReadingError's doc comment
// above reads naturally; it is identical to location.Location.
type Location = location.Location

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s: SyntaxError: %s", e.Loc, e.Message)
}

func (e ExprError) Error() string {
	return fmt.Sprintf("%s: ExprError: %s", e.Loc, e.Message)
}

func (e TypeError) Error() string {
	return fmt.Sprintf("%s: TypeError: %s", e.Loc, e.Message)
}

func (e NameError) Error() string {
	return fmt.Sprintf("%s: NameError: unknown function %q", e.Loc, e.Name)
}

func (e CircularIncludeError) Error() string {
	return fmt.Sprintf("%s: CircularIncludeError: %q already included (stack: %v)", e.Loc, e.ResolvedID, e.Stack)
}

func (e UnknownSourceError) Error() string {
	return fmt.Sprintf("%s: UnknownSourceError: no reader supports %q", e.Loc, e.Ref)
}

func (e SourceReadingError) Error() string {
	return fmt.Sprintf("%s: SourceReadingError: failed to read %q: %v", e.Loc, e.Ref, e.Err)
}

func (e SourceReadingError) Unwrap() error { return e.Err }

func (e UserError) Error() string {
	return fmt.Sprintf("%s: UserError: %s", e.Loc, e.Message)
}

// Timeout is the sentinel cause wrapped by a SourceReadingError raised
// when a reader exceeds its per-read deadline (see SPEC_FULL.md §5).
var Timeout = fmt.Errorf("source read timed out")
