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

import (
	"context"
	"path"
	"strings"

	"github.com/builder-lang/builder/builderrors"
	"github.com/builder-lang/builder/expr"
	"github.com/builder-lang/builder/internal/collections"
	"github.com/builder-lang/builder/lexer"
	"github.com/builder-lang/builder/location"
	"github.com/builder-lang/builder/macro"
	"github.com/builder-lang/builder/reader"
	"github.com/builder-lang/builder/value"
)

// handleInclude implements spec.md §4.5: the @include argument is
// parsed as an expression first so that a bareword or call-shaped
// reference can be recognized as a macro invocation before falling
// back to treating the evaluated value as an include reference.
func (s *execState) handleInclude(ctx context.Context, line lexer.Line) error {
	node, err := expr.Parse(line.Rest, line.RestLoc)
	if err != nil {
		return builderrors.ExprError{Loc: line.RestLoc, Message: err.Error()}
	}

	var macroName string
	var macroArgs []expr.Node
	switch n := node.(type) {
	case expr.Call:
		macroName, macroArgs = n.Name, n.Args
	case expr.Ident:
		macroName = n.Name
	}
	if macroName != "" {
		if m, ok := s.macros.Lookup(macroName); ok {
			args := make([]value.Value, len(macroArgs))
			for i, a := range macroArgs {
				v, err := expr.Eval(a, s.env)
				if err != nil {
					return err
				}
				args[i] = v
			}
			return s.invokeMacro(ctx, m, args)
		}
	}

	v, err := expr.Eval(node, s.env)
	if err != nil {
		return err
	}
	return s.resolveInclude(ctx, v.ToString(), line.Loc)
}

// invokeMacro binds m's parameters in a fresh scope and re-processes
// the macro body as if it were an included source rooted at the
// macro's definition site (spec.md §4.3). Parameters with no
// corresponding argument are left unbound rather than bound to null,
// so defined(param) reports false for them and they fall through
// Lookup's "unresolved → null" rule.
func (s *execState) invokeMacro(ctx context.Context, m macro.Macro, args []value.Value) error {
	bindings := map[string]value.Value{}
	for i, p := range m.Params {
		if i < len(args) {
			bindings[p] = args[i]
		}
	}
	s.env.Push(bindings)
	defer s.env.Pop()
	return s.processLines(ctx, m.Body, m.DefSite)
}

// resolveInclude implements the six-step include resolver (spec.md
// §4.5): reader dispatch, dependency-pin substitution, cycle
// detection, per-reference caching, fetch, and the recursive descent
// into the fetched text.
func (s *execState) resolveInclude(ctx context.Context, ref string, loc location.Location) error {
	rd := s.driver.Registry.Resolve(ref)
	if rd == nil {
		if resolved, ok := s.resolveRelative(ref); ok {
			if rd2 := s.driver.Registry.Resolve(resolved); rd2 != nil {
				rd, ref = rd2, resolved
			}
		}
	}
	if rd == nil {
		return builderrors.UnknownSourceError{Loc: loc, Ref: ref}
	}

	effectiveRef := ref
	if pin, ok := s.driver.Dependencies[ref]; ok {
		if pinner, ok := rd.(reader.Pinner); ok {
			effectiveRef = pinner.WithPin(ref, pin)
		}
	}

	meta, err := rd.ParsePath(effectiveRef)
	if err != nil {
		return builderrors.SourceReadingError{Loc: loc, Ref: ref, Err: err}
	}

	active := collections.ToSet(collections.MapSlice(s.frames, func(f frame) string { return f.resolvedID }))
	if active.Contains(meta.File) {
		return builderrors.CircularIncludeError{Loc: loc, ResolvedID: meta.File, Stack: active.Values()}
	}

	text, commitID, err := s.readCached(ctx, rd, effectiveRef, meta)
	if err != nil {
		return builderrors.SourceReadingError{Loc: loc, Ref: ref, Err: err}
	}
	if s.driver.Config.SaveDependencies && commitID != "" {
		s.driver.Dependencies[ref] = commitID
	}

	s.frames = append(s.frames, frame{
		file:       meta.File,
		path:       meta.Path,
		repoRef:    meta.RepoRef,
		repoPrefix: meta.RepoPrefix,
		resolvedID: meta.File,
		remote:     meta.RepoRef != "" || strings.Contains(ref, "://"),
	})
	defer func() { s.frames = s.frames[:len(s.frames)-1] }()

	return s.processLines(ctx, splitLines(text), location.Init(meta.File))
}

// readCached fetches ref through rd, memoizing by the resolved file
// identifier for the lifetime of the Driver (or just this Execute
// call, when Config.ClearCache is set).
func (s *execState) readCached(ctx context.Context, rd reader.Reader, ref string, meta reader.PathMeta) (text, commitID string, err error) {
	if cached, ok := s.driver.cache[meta.File]; ok {
		return cached, "", nil
	}
	res, err := rd.Read(ctx, ref, reader.Context{
		Dependencies: s.driver.Dependencies,
		Credentials:  s.rctx.Credentials,
	})
	if err != nil {
		return "", "", err
	}
	s.driver.cache[meta.File] = res.Text
	return res.Text, res.CommitID, nil
}

// resolveRelative rebases a schemeless ref against the current
// frame's directory, falling back to the top-level frame when the
// current frame is remote and RemoteRelativeIncludes is disabled
// (spec.md §4.5 step "resolving relative references").
func (s *execState) resolveRelative(ref string) (string, bool) {
	if isAbsoluteRef(ref) {
		return "", false
	}
	base := s.frames[len(s.frames)-1]
	if base.remote && !s.driver.Config.RemoteRelativeIncludes {
		base = s.frames[0]
	}
	dir := path.Dir(base.path)
	joined := path.Join(dir, ref)
	if base.repoPrefix != "" {
		return base.repoPrefix + "/" + joined, true
	}
	return joined, true
}

func isAbsoluteRef(ref string) bool {
	if strings.Contains(ref, "://") {
		return true
	}
	for _, scheme := range []string{"github:", "git-azure-repos:", "git-local:", "bitbucket-server:"} {
		if strings.HasPrefix(ref, scheme) {
			return true
		}
	}
	if strings.Contains(ref, ".git/") || strings.Contains(ref, ".git@") {
		return true
	}
	return strings.HasPrefix(ref, "/")
}
