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

// Package builder implements Builder's driver: the state machine that
// walks a source file line by line, dispatching directives, expanding
// macros and includes, evaluating conditionals, and splicing inline
// expressions into the output stream (spec.md §4.6).
package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/builder-lang/builder/builderrors"
	"github.com/builder-lang/builder/expr"
	"github.com/builder-lang/builder/lexer"
	"github.com/builder-lang/builder/location"
	"github.com/builder-lang/builder/macro"
	"github.com/builder-lang/builder/reader"
	"github.com/builder-lang/builder/value"
)

// Driver owns the state that persists across a single top-level
// Execute call, and the read cache and dependency map that may span
// several calls against the same Registry.
type Driver struct {
	Registry *reader.Registry
	Config   Config

	// Dependencies is the live dependency-pin map (spec.md §6): keyed
	// by the verbatim include reference as written, valued by the
	// resolved commit ID. Callers may pre-populate it before Execute to
	// pin specific references, and read it back afterward to persist
	// newly recorded pins.
	Dependencies map[string]string

	cache map[string]string // resolvedID -> fetched text
}

// NewDriver returns a Driver ready to Execute against registry.
func NewDriver(registry *reader.Registry, cfg Config) *Driver {
	return &Driver{
		Registry:     registry,
		Config:       cfg,
		Dependencies: map[string]string{},
		cache:        map[string]string{},
	}
}

// macroCapture is the state accumulated between @macro and its closing
// @endmacro/@end. live records whether the enclosing conditional
// branch was live at the @macro line itself: a macro opened in a dead
// branch still captures (and discards) its body, since @end is
// ambiguous between closing @macro and closing @if and must not be
// misread as the latter while the body is skipped.
type macroCapture struct {
	name    string
	params  []string
	defSite location.Location
	body    []string
	live    bool
}

// execState is the mutable state threaded through one Execute call,
// including all recursive descents into includes and macro bodies.
type execState struct {
	driver *Driver
	rctx   Context
	env    *expr.Environment
	macros *macro.Table
	frames []frame
	out    *strings.Builder

	lastFile string
	lastLine int
	haveLast bool
}

// Execute runs source (whose displayable name is file) through the
// full directive/expression/include pipeline and returns the
// generated output.
func (d *Driver) Execute(ctx context.Context, source string, file string, rctx Context) (string, error) {
	if d.Config.ClearCache {
		d.cache = map[string]string{}
	}
	if d.Dependencies == nil {
		d.Dependencies = map[string]string{}
	}
	s := &execState{
		driver: d,
		rctx:   rctx,
		env:    expr.NewEnvironment(),
		macros: macro.NewTable(),
		out:    &strings.Builder{},
	}
	s.frames = []frame{{file: file, path: file}}

	err := s.processLines(ctx, splitLines(source), location.Init(file))
	out := s.out.String()
	if !strings.HasSuffix(source, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out, err
}

// splitLines splits source into physical lines without their trailing
// newline, tolerating a missing final newline.
func splitLines(source string) []string {
	return strings.Split(strings.TrimSuffix(source, "\n"), "\n")
}

// processLines is Builder's line-processing loop (spec.md §4.6),
// invoked once per top-level source and recursively once per included
// file and once per macro invocation. startLoc is the location of
// lines[0]; conditionals and macro capture are scoped to this call and
// must be fully closed by the time lines is exhausted.
func (s *execState) processLines(ctx context.Context, lines []string, startLoc location.Location) error {
	var conds []condFrame
	var capturing *macroCapture

	for i, raw := range lines {
		loc := location.Location{File: startLoc.File, Line: startLoc.Line + i, Col: 1}

		if capturing != nil {
			line, err := lexer.Classify(raw, loc)
			if err != nil {
				return builderrors.SyntaxError{Loc: loc, Message: err.Error()}
			}
			if line.Kind == lexer.DirectiveKind && line.Directive == "macro" {
				return builderrors.SyntaxError{Loc: loc, Message: "nested @macro is not allowed"}
			}
			if line.Kind == lexer.DirectiveKind && (line.Directive == "endmacro" || line.Directive == "end") {
				if capturing.live {
					s.macros.Define(macro.Macro{
						Name:    capturing.name,
						Params:  capturing.params,
						Body:    capturing.body,
						DefSite: capturing.defSite,
					})
				}
				capturing = nil
				continue
			}
			capturing.body = append(capturing.body, raw)
			continue
		}

		line, err := lexer.Classify(raw, loc)
		if err != nil {
			return builderrors.SyntaxError{Loc: loc, Message: err.Error()}
		}

		// @macro is recognized ahead of conditional dispatch, live or
		// not: @end closes both @macro and @if, and only starting the
		// capture here (rather than only in dispatchDirective, which is
		// only reached from a live branch) keeps a dead branch's @end
		// from being misread as a conditional close.
		if line.Kind == lexer.DirectiveKind && line.Directive == "macro" {
			live := condLive(conds)
			var name string
			var params []string
			if live {
				name, params, err = parseMacroHeader(line.Rest)
				if err != nil {
					return builderrors.SyntaxError{Loc: line.RestLoc, Message: err.Error()}
				}
			}
			capturing = &macroCapture{name: name, params: params, defSite: line.Loc.NextLine(), live: live}
			continue
		}

		if line.Kind == lexer.DirectiveKind && isCondDirective(line.Directive) {
			if err := s.applyCondDirective(&conds, line); err != nil {
				return err
			}
			continue
		}

		if !condLive(conds) {
			continue
		}

		if line.Kind == lexer.DirectiveKind {
			if err := s.dispatchDirective(ctx, line); err != nil {
				return err
			}
			continue
		}

		if err := s.emitTextLine(line); err != nil {
			return err
		}
	}

	if capturing != nil {
		return builderrors.SyntaxError{Loc: capturing.defSite, Message: fmt.Sprintf("unterminated @macro %q", capturing.name)}
	}
	if len(conds) > 0 {
		return builderrors.SyntaxError{Loc: startLoc, Message: "unterminated @if"}
	}
	return nil
}

func isCondDirective(name string) bool {
	switch name {
	case "if", "elseif", "else", "endif", "end":
		return true
	}
	return false
}

// applyCondDirective manages the conditional stack for one of
// if/elseif/else/endif|end, evaluating the guard expression only when
// every ancestor block is itself live (dead branches are scanned for
// nesting only, per spec.md §4.6 point 2).
func (s *execState) applyCondDirective(conds *[]condFrame, line lexer.Line) error {
	switch line.Directive {
	case "if":
		ancestorsLive := condLive(*conds)
		taken := false
		if ancestorsLive {
			v, err := s.evalExpr(line.Rest, line.RestLoc)
			if err != nil {
				return err
			}
			taken = v.Truthy()
		}
		*conds = append(*conds, condFrame{taken: taken, matched: taken})
		return nil

	case "elseif":
		if len(*conds) == 0 {
			return builderrors.SyntaxError{Loc: line.Loc, Message: "@elseif without matching @if"}
		}
		top := &(*conds)[len(*conds)-1]
		if top.sawElse {
			return builderrors.SyntaxError{Loc: line.Loc, Message: "@elseif after @else"}
		}
		ancestorsLive := condLive((*conds)[:len(*conds)-1])
		if !top.matched && ancestorsLive {
			v, err := s.evalExpr(line.Rest, line.RestLoc)
			if err != nil {
				return err
			}
			top.taken = v.Truthy()
			top.matched = top.taken
		} else {
			top.taken = false
		}
		return nil

	case "else":
		if len(*conds) == 0 {
			return builderrors.SyntaxError{Loc: line.Loc, Message: "@else without matching @if"}
		}
		top := &(*conds)[len(*conds)-1]
		if top.sawElse {
			return builderrors.SyntaxError{Loc: line.Loc, Message: "duplicate @else"}
		}
		top.sawElse = true
		ancestorsLive := condLive((*conds)[:len(*conds)-1])
		if !top.matched && ancestorsLive {
			top.taken = true
			top.matched = true
		} else {
			top.taken = false
		}
		return nil

	case "endif", "end":
		if len(*conds) == 0 {
			return builderrors.SyntaxError{Loc: line.Loc, Message: "@endif without matching @if"}
		}
		*conds = (*conds)[:len(*conds)-1]
		return nil
	}
	return nil
}

func (s *execState) evalExpr(text string, loc location.Location) (value.Value, error) {
	node, err := expr.Parse(text, loc)
	if err != nil {
		return value.Value{}, builderrors.ExprError{Loc: loc, Message: err.Error()}
	}
	v, err := expr.Eval(node, s.env)
	if err != nil {
		return value.Value{}, err
	}
	return v, nil
}

// dispatchDirective handles set/endmacro/error/include, which are only
// ever reached from a live branch. @macro is handled earlier in
// processLines, since it must start a capture even in a dead branch.
func (s *execState) dispatchDirective(ctx context.Context, line lexer.Line) error {
	switch line.Directive {
	case "set":
		name, exprText, exprLoc, err := parseSetRest(line.Rest, line.RestLoc)
		if err != nil {
			return err
		}
		v, err := s.evalExpr(exprText, exprLoc)
		if err != nil {
			return err
		}
		s.env.SetGlobal(name, v)
		return nil

	case "endmacro", "end":
		return builderrors.SyntaxError{Loc: line.Loc, Message: "@" + line.Directive + " without matching @macro"}

	case "error":
		v, err := s.evalExpr(line.Rest, line.RestLoc)
		if err != nil {
			return err
		}
		return builderrors.UserError{Loc: line.Loc, Message: v.ToString()}

	case "include":
		return s.handleInclude(ctx, line)

	default:
		return builderrors.SyntaxError{Loc: line.Loc, Message: "unknown directive @" + line.Directive}
	}
}

// emitTextLine renders a classified text line's segments (literal
// text interleaved with evaluated @{...} splices) and appends it to
// the output, emitting a line-control marker first if needed.
func (s *execState) emitTextLine(line lexer.Line) error {
	var content strings.Builder
	for _, seg := range line.Segments {
		if !seg.IsSplice {
			content.WriteString(seg.Text)
			continue
		}
		v, err := s.evalExpr(seg.Text, seg.Loc)
		if err != nil {
			return err
		}
		content.WriteString(v.SpliceString())
	}
	s.emit(line.Loc, content.String())
	return nil
}

// emit appends one physical output line, preceding it with a
// "#line N \"file\"" marker when the configured behavior calls for one
// and the (file, line) pair isn't the natural continuation of the
// previously emitted line.
func (s *execState) emit(loc location.Location, content string) {
	if s.driver.Config.GenerateLineControlStatements {
		natural := s.haveLast && loc.File == s.lastFile && loc.Line == s.lastLine+1
		if !natural {
			fmt.Fprintf(s.out, "#line %d %q\n", loc.Line, loc.File)
		}
	}
	s.out.WriteString(content)
	s.out.WriteByte('\n')
	s.lastFile, s.lastLine, s.haveLast = loc.File, loc.Line, true
}

// parseSetRest splits "@set" directive text into the target
// identifier and the (possibly "="-prefixed) expression text.
func parseSetRest(rest string, restLoc location.Location) (name, exprText string, exprLoc location.Location, err error) {
	i := 0
	for i < len(rest) && isIdentByte(rest[i]) {
		i++
	}
	if i == 0 {
		return "", "", location.Location{}, builderrors.SyntaxError{Loc: restLoc, Message: "@set requires an identifier"}
	}
	name = rest[:i]
	j := i
	for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
		j++
	}
	if j < len(rest) && rest[j] == '=' && !(j+1 < len(rest) && rest[j+1] == '=') {
		j++
		for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
			j++
		}
	}
	exprText = rest[j:]
	exprLoc = restLoc.AdvancedBy(rest[:j])
	return name, exprText, exprLoc, nil
}

// parseMacroHeader splits "@macro" directive text into the macro's
// name and its parameter list, if any.
func parseMacroHeader(rest string) (name string, params []string, err error) {
	i := 0
	for i < len(rest) && isIdentByte(rest[i]) {
		i++
	}
	if i == 0 {
		return "", nil, fmt.Errorf("@macro requires a name")
	}
	name = rest[:i]
	tail := strings.TrimSpace(rest[i:])
	if tail == "" {
		return name, nil, nil
	}
	if !strings.HasPrefix(tail, "(") || !strings.HasSuffix(tail, ")") {
		return "", nil, fmt.Errorf("malformed @macro parameter list %q", tail)
	}
	inner := strings.TrimSpace(tail[1 : len(tail)-1])
	if inner == "" {
		return name, nil, nil
	}
	for _, p := range strings.Split(inner, ",") {
		params = append(params, strings.TrimSpace(p))
	}
	return name, params, nil
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
