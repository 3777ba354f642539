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

import "github.com/builder-lang/builder/value"

// Environment is a stack of scopes, innermost last. Lookup walks from
// innermost to outermost; @set always writes to the outermost
// (global) scope; macro invocation pushes/pops intermediate scopes.
type Environment struct {
	scopes []map[string]value.Value
}

// NewEnvironment returns an Environment with just the global scope.
func NewEnvironment() *Environment {
	return &Environment{scopes: []map[string]value.Value{{}}}
}

// Push adds a new innermost scope, pre-populated with bindings (used
// to bind macro parameters).
func (e *Environment) Push(bindings map[string]value.Value) {
	if bindings == nil {
		bindings = map[string]value.Value{}
	}
	e.scopes = append(e.scopes, bindings)
}

// Pop removes the innermost scope. Callers must not pop the global
// scope.
func (e *Environment) Pop() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// Lookup walks scopes innermost-to-outermost. An unresolved
// identifier evaluates to Null with ok=false.
func (e *Environment) Lookup(name string) (value.Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}
	return value.NullValue(), false
}

// Defined reports whether name is bound in any enclosing scope,
// implementing the defined(name) built-in.
func (e *Environment) Defined(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// SetGlobal implements @set: assignment always targets the outermost
// scope, regardless of how many macro scopes are currently pushed.
func (e *Environment) SetGlobal(name string, v value.Value) {
	e.scopes[0][name] = v
}

// Global exposes the outermost scope's contents, used by tests and by
// callers that want a deterministic snapshot of top-level state.
func (e *Environment) Global() map[string]value.Value {
	return e.scopes[0]
}
