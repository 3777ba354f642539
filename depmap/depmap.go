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

// Package depmap (de)serializes Builder's dependency map (spec.md
// §6.4) as a Starlark-like "deps.lock" file, the way the teacher's
// Bazel tooling reads and writes BUILD-file flavored Starlark: key =
// verbatim include reference, value = pinned commit ID.
//
// In memory the map stays exactly the plain map[string]string §3
// describes; only this package's Load/Save boundary touches the
// Starlark AST.
package depmap

import (
	"fmt"
	"os"
	"sort"

	"github.com/bazelbuild/buildtools/build"
)

const varName = "deps"

// Load reads a deps.lock file at path and returns its contents as a
// plain map. A missing file is not an error: it returns an empty map,
// matching a project that has not yet pinned anything.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := build.ParseDefault(path, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return fromFile(f)
}

// Save writes deps to path as a deps.lock file, formatted the way
// buildifier would format a BUILD file.
func Save(path string, deps map[string]string) error {
	data := build.Format(toFile(deps))
	return os.WriteFile(path, data, 0o644)
}

// Merge returns the union of base and overlay, with overlay's pins
// taking precedence on key collision (spec.md §6.4, "save... union of
// its prior contents with any new pins recorded during execute").
func Merge(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func toFile(deps map[string]string) *build.File {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dict := &build.DictExpr{ForceMultiLine: true}
	for _, k := range keys {
		dict.List = append(dict.List, &build.KeyValueExpr{
			Key:   &build.StringExpr{Value: k},
			Value: &build.StringExpr{Value: deps[k]},
		})
	}
	return &build.File{
		Path: "deps.lock",
		Stmt: []build.Expr{
			&build.AssignExpr{
				LHS: &build.Ident{Name: varName},
				Op:  "=",
				RHS: dict,
			},
		},
	}
}

func fromFile(f *build.File) (map[string]string, error) {
	out := map[string]string{}
	for _, stmt := range f.Stmt {
		assign, ok := stmt.(*build.AssignExpr)
		if !ok {
			continue
		}
		ident, ok := assign.LHS.(*build.Ident)
		if !ok || ident.Name != varName {
			continue
		}
		dict, ok := assign.RHS.(*build.DictExpr)
		if !ok {
			return nil, fmt.Errorf("%s: %s is not a dict literal", f.Path, varName)
		}
		for _, kv := range dict.List {
			key, ok := kv.Key.(*build.StringExpr)
			if !ok {
				return nil, fmt.Errorf("%s: dependency key is not a string literal", f.Path)
			}
			value, ok := kv.Value.(*build.StringExpr)
			if !ok {
				return nil, fmt.Errorf("%s: dependency value for %q is not a string literal", f.Path, key.Value)
			}
			out[key.Value] = value.Value
		}
	}
	return out, nil
}
