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

package expr

import (
	"fmt"
	"strings"

	"github.com/builder-lang/builder/location"
)

// Node is an expression AST node. Each variant implements fmt.Stringer
// for debugging/round-tripping, the same contract the teacher's
// parser.Expr interface uses.
type Node interface {
	fmt.Stringer
	Loc() location.Location
}

type (
	NumberLit struct {
		Value float64
		At    location.Location
	}
	StringLit struct {
		Value string
		At    location.Location
	}
	BoolLit struct {
		Value bool
		At    location.Location
	}
	NullLit struct {
		At location.Location
	}
	ArrayLit struct {
		Elems []Node
		At    location.Location
	}
	Ident struct {
		Name string
		At   location.Location
	}
	// LineBuiltin and FileBuiltin are the reserved pseudo-identifiers
	// __LINE__ and __FILE__, resolved against the referencing token's
	// own source location at evaluation time.
	LineBuiltin struct{ At location.Location }
	FileBuiltin struct{ At location.Location }

	Unary struct {
		Op string // "+", "-", "!"
		X  Node
		At location.Location
	}
	Binary struct {
		Op   string
		L, R Node
		At   location.Location
	}
	// Ternary implements the top-level `cond ? then : else` operator.
	Ternary struct {
		Cond, Then, Else Node
		At               location.Location
	}
	// Member implements postfix `.id` and `[expr]` access.
	Member struct {
		X     Node
		Name  string // set for `.id` access
		Index Node   // set for `[expr]` access; mutually exclusive with Name
		At    location.Location
	}
	// Call implements postfix `id(args...)` invocation of a built-in
	// function. Builder does not support calling arbitrary
	// expressions, only named built-ins.
	Call struct {
		Name string
		Args []Node
		At   location.Location
	}
	// DefinedCall is the built-in defined(name), which takes an
	// identifier token rather than a value.
	DefinedCall struct {
		Name string
		At   location.Location
	}
)

func (n NumberLit) Loc() location.Location   { return n.At }
func (n StringLit) Loc() location.Location   { return n.At }
func (n BoolLit) Loc() location.Location     { return n.At }
func (n NullLit) Loc() location.Location     { return n.At }
func (n ArrayLit) Loc() location.Location    { return n.At }
func (n Ident) Loc() location.Location       { return n.At }
func (n LineBuiltin) Loc() location.Location { return n.At }
func (n FileBuiltin) Loc() location.Location { return n.At }
func (n Unary) Loc() location.Location       { return n.At }
func (n Binary) Loc() location.Location      { return n.At }
func (n Ternary) Loc() location.Location     { return n.At }
func (n Member) Loc() location.Location      { return n.At }
func (n Call) Loc() location.Location        { return n.At }
func (n DefinedCall) Loc() location.Location { return n.At }

func (n NumberLit) String() string { return fmt.Sprintf("%g", n.Value) }
func (n StringLit) String() string { return fmt.Sprintf("%q", n.Value) }
func (n BoolLit) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}
func (n NullLit) String() string { return "null" }
func (n ArrayLit) String() string {
	parts := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (n Ident) String() string       { return n.Name }
func (n LineBuiltin) String() string { return "__LINE__" }
func (n FileBuiltin) String() string { return "__FILE__" }
func (n Unary) String() string       { return n.Op + "(" + n.X.String() + ")" }
func (n Binary) String() string      { return fmt.Sprintf("(%s %s %s)", n.L, n.Op, n.R) }
func (n Ternary) String() string     { return fmt.Sprintf("(%s ? %s : %s)", n.Cond, n.Then, n.Else) }
func (n Member) String() string {
	if n.Index != nil {
		return fmt.Sprintf("%s[%s]", n.X, n.Index)
	}
	return fmt.Sprintf("%s.%s", n.X, n.Name)
}
func (n Call) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(parts, ", "))
}
func (n DefinedCall) String() string { return fmt.Sprintf("defined(%s)", n.Name) }
