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

// Package macro implements Builder's macro table: the registry from
// macro name to parameter list and body, captured verbatim at the
// macro's definition site (spec.md §4.3).
package macro

import (
	"log"

	"github.com/builder-lang/builder/location"
)

// Macro is a registered @macro definition. Body is the literal
// sequence of raw source lines between @macro and @endmacro/@end; it
// is re-processed on each invocation rather than pre-parsed.
type Macro struct {
	Name    string
	Params  []string
	Body    []string
	DefSite location.Location
}

// Table is the registry from macro name to Macro, generalizing the
// teacher's single-pass directive extraction (which never needed a
// persistent symbol table) to Builder's forward-visible macro scope.
type Table struct {
	macros map[string]Macro
}

func NewTable() *Table {
	return &Table{macros: map[string]Macro{}}
}

// Define registers m, logging a warning-level diagnostic on
// redefinition rather than failing.
func (t *Table) Define(m Macro) {
	if _, exists := t.macros[m.Name]; exists {
		log.Printf("%s: warning: macro %q redefined, previous definition discarded", m.DefSite, m.Name)
	}
	t.macros[m.Name] = m
}

// Lookup returns the macro registered under name, if any. Builder's
// visibility rule (a macro is visible to any @include textually after
// its definition) falls out naturally from the driver processing
// lines in strict textual order and only calling Lookup after Define
// has already run for every preceding line.
func (t *Table) Lookup(name string) (Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}
