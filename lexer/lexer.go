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

// Package lexer classifies each input line as a directive line, a
// plain passthrough line, or a passthrough line containing one or
// more inline @{...} expression splices.
package lexer

import (
	"fmt"
	"strings"

	"github.com/builder-lang/builder/location"
)

// Kind identifies whether a Line is a directive or plain text.
type Kind int

const (
	TextKind Kind = iota
	DirectiveKind
)

// directiveNames is the fixed set of recognized directive keywords
// (SPEC_FULL.md §4.1 / spec.md §6.1).
var directiveNames = map[string]bool{
	"set": true, "macro": true, "endmacro": true, "end": true,
	"if": true, "elseif": true, "else": true, "endif": true,
	"error": true, "include": true,
}

// Segment is one piece of a text line: either literal output text or
// an inline @{expr} splice awaiting evaluation.
type Segment struct {
	IsSplice bool
	Text     string // literal text, or raw expression source for a splice
	Loc      location.Location
}

// Line is the classified result of one input line.
type Line struct {
	Kind      Kind
	Loc       location.Location
	Raw       string // the original line, without trailing newline
	Directive string // set when Kind == DirectiveKind
	Rest      string // directive argument text, comments stripped
	RestLoc   location.Location
	Segments  []Segment // set when Kind == TextKind
}

// Classify inspects a single line (without its trailing newline) and
// returns its classification. loc is the location of the line's first
// character.
func Classify(raw string, loc location.Location) (Line, error) {
	trimmed := strings.TrimLeft(raw, " \t")
	if strings.HasPrefix(trimmed, "@") {
		leadingWS := len(raw) - len(trimmed)
		name, rest, restOffset, ok := splitDirective(trimmed[1:])
		if ok && directiveNames[name] {
			restLoc := loc.AdvancedBy(raw[:leadingWS+1+restOffset])
			return Line{
				Kind:      DirectiveKind,
				Loc:       loc,
				Raw:       raw,
				Directive: name,
				Rest:      stripComments(rest),
				RestLoc:   restLoc,
			}, nil
		}
	}

	segments, err := splitSplices(raw, loc)
	if err != nil {
		return Line{}, err
	}
	return Line{Kind: TextKind, Loc: loc, Raw: raw, Segments: segments}, nil
}

// splitDirective splits "name rest" or "name(rest)" or a bare "name"
// off the text following '@'. It returns the matched directive name,
// the raw remainder, and the byte offset within s (the name included)
// at which the remainder begins.
func splitDirective(s string) (name, rest string, restOffset int, ok bool) {
	i := 0
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	if i == 0 {
		return "", "", 0, false
	}
	name = s[:i]
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	return name, s[j:], j, true
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// stripComments removes "// ..." and "/* ... */" (single-line,
// non-nested) comments from a directive's expression region, leaving
// string literals untouched.
func stripComments(s string) string {
	var out strings.Builder
	inString := byte(0)
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case inString != 0:
			out.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				out.WriteByte(s[i+1])
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
			i++
		case c == '"' || c == '\'':
			inString = c
			out.WriteByte(c)
			i++
		case strings.HasPrefix(s[i:], "//"):
			return out.String()
		case strings.HasPrefix(s[i:], "/*"):
			if end := strings.Index(s[i+2:], "*/"); end >= 0 {
				i = i + 2 + end + 2
			} else {
				i = len(s)
			}
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// splitSplices scans a text line for "@{...}" inline expression
// splices. Brace matching is nest-sensitive: interior "{" increase
// depth, and braces inside string literals do not count.
func splitSplices(raw string, loc location.Location) ([]Segment, error) {
	var segments []Segment
	cur := loc
	literalStart := 0
	i := 0
	for i < len(raw) {
		if raw[i] == '@' && i+1 < len(raw) && raw[i+1] == '{' {
			if i > literalStart {
				segments = append(segments, Segment{Text: raw[literalStart:i], Loc: cur})
			}
			exprStart := i + 2
			exprStartLoc := loc.AdvancedBy(raw[:exprStart])
			end, err := matchBrace(raw, exprStart)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", exprStartLoc, err)
			}
			segments = append(segments, Segment{IsSplice: true, Text: raw[exprStart:end], Loc: exprStartLoc})
			i = end + 1
			literalStart = i
			cur = loc.AdvancedBy(raw[:i])
			continue
		}
		i++
	}
	if literalStart < len(raw) {
		segments = append(segments, Segment{Text: raw[literalStart:], Loc: cur})
	}
	return segments, nil
}

// matchBrace returns the index of the "}" matching the "{" implied at
// start (start itself is the index just after that "{"), tracking
// nested braces and skipping brace characters inside string literals.
func matchBrace(s string, start int) (int, error) {
	depth := 1
	inString := byte(0)
	i := start
	for i < len(s) {
		c := s[i]
		switch {
		case inString != 0:
			if c == '\\' && i+1 < len(s) {
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
		case c == '"' || c == '\'':
			inString = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, fmt.Errorf("unterminated inline splice, missing closing '}'")
}
