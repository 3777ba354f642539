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

// Package token defines the token stream that Builder's expression
// scanner produces and its expression parser consumes.
package token

import "github.com/builder-lang/builder/location"

// Kind classifies a single Token.
type Kind int

const (
	// Number is a decimal literal with optional exponent.
	Number Kind = iota
	// String is a single- or double-quoted literal, already unescaped.
	String
	// Ident is an identifier or reserved word (true/false/null/defined/__LINE__/__FILE__).
	Ident
	// Op is an operator or punctuation token recognized by the grammar.
	Op
	// EOF marks the end of the token stream.
	EOF
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "Number"
	case String:
		return "String"
	case Ident:
		return "Ident"
	case Op:
		return "Op"
	case EOF:
		return "EOF"
	default:
		return "Unknown"
	}
}

// Token is a single lexical unit of an expression, carrying the
// location of its first character for diagnostics and for __LINE__/
// __FILE__ resolution.
type Token struct {
	Kind Kind
	Text string
	Loc  location.Location
}

func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}
