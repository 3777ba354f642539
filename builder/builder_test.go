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
	"testing"

	"github.com/builder-lang/builder/builderrors"
	"github.com/builder-lang/builder/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves a fixed in-memory table of references, keyed by
// the reference as written. It never reports a scheme prefix of its
// own: Supports matches anything present in its table, so tests can
// register it last behind the readers under test.
type fakeReader struct {
	files map[string]string
}

func (f *fakeReader) Supports(ref string) bool {
	_, ok := f.files[ref]
	return ok
}

func (f *fakeReader) ParsePath(ref string) (reader.PathMeta, error) {
	return reader.PathMeta{File: ref, Path: ref}, nil
}

func (f *fakeReader) Read(ctx context.Context, ref string, rctx reader.Context) (reader.ReadResult, error) {
	return reader.ReadResult{Text: f.files[ref]}, nil
}

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	d := NewDriver(reader.NewRegistry(), Config{})
	return d.Execute(context.Background(), source, "test.bld", Context{})
}

func TestSetAndSplice(t *testing.T) {
	out, err := run(t, `@set SOMEVAR min(1,2,3)
@{SOMEVAR}`)
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestSetAndSpliceStringConcat(t *testing.T) {
	out, err := run(t, "@set name \"Someone\"\nHello, @{name}, the result is: @{123 * 456}.")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Someone, the result is: 56088.", out)
}

func TestMacroInvocation(t *testing.T) {
	out, err := run(t, `@macro m(a,b,c)
Hello, @{a}!
Roses are @{b},
And violets are @{defined(c) ? c : "of unknown color"}.
@end
@include m("username", 123)`)
	require.NoError(t, err)
	assert.Equal(t, "Hello, username!\nRoses are 123,\nAnd violets are of unknown color.", out)
}

func TestConditionalChainSelectsElseif(t *testing.T) {
	d := NewDriver(reader.NewRegistry(), Config{})
	out, err := d.Execute(context.Background(), `@if __FILE__ == 'abc.ext'
A
@elseif __FILE__ == 'def.ext'
B
@else
C
@endif`, "def.ext", Context{})
	require.NoError(t, err)
	assert.Equal(t, "B", out)
}

func TestErrorDirectiveReportsUserError(t *testing.T) {
	_, err := run(t, `@error "Platform is " + PLATFORM + " is unsupported"`)
	require.Error(t, err)
	var userErr builderrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, `Platform is null is unsupported`, userErr.Message)
}

func TestUndefinedVariableSplicesEmpty(t *testing.T) {
	out, err := run(t, "@{nope}")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestTextPassthroughIdentity(t *testing.T) {
	for _, s := range []string{"", "no directives here\njust text", "  indented\n"} {
		out, err := run(t, s)
		require.NoError(t, err)
		assert.Equal(t, s, out)
	}
}

func TestConditionalMutualExclusion(t *testing.T) {
	out, err := run(t, `@if true
one
@elseif true
two
@else
three
@endif`)
	require.NoError(t, err)
	assert.Equal(t, "one", out)
}

func TestNestedConditionalInDeadBranchDoesNotEmit(t *testing.T) {
	out, err := run(t, `@if false
@if true
hidden
@endif
@else
visible
@endif`)
	require.NoError(t, err)
	assert.Equal(t, "visible", out)
}

func TestMacroInDeadBranchClosedByEndDoesNotLeakCondStack(t *testing.T) {
	out, err := run(t, `@if false
@macro m()
never defined
@end
@endif
visible`)
	require.NoError(t, err)
	assert.Equal(t, "visible", out)
}

func TestMacroScopingRevertsAfterInvocation(t *testing.T) {
	out, err := run(t, `@set p "outer"
@macro m(p)
@{p}
@end
@include m("inner")
@{p}`)
	require.NoError(t, err)
	assert.Equal(t, "inner\nouter", out)
}

func TestMacroRedefinitionWarnsAndUsesLatest(t *testing.T) {
	out, err := run(t, `@macro m()
first
@end
@macro m()
second
@end
@include m()`)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestIncludeFromFakeReader(t *testing.T) {
	registry := reader.NewRegistry(&fakeReader{files: map[string]string{"included.txt": "from include"}})
	d := NewDriver(registry, Config{})
	out, err := d.Execute(context.Background(), `before
@include "included.txt"
after`, "main.bld", Context{})
	require.NoError(t, err)
	assert.Equal(t, "before\nfrom include\nafter", out)
}

func TestCircularIncludeFails(t *testing.T) {
	registry := reader.NewRegistry(&fakeReader{files: map[string]string{
		"a.txt": `@include "b.txt"`,
		"b.txt": `@include "a.txt"`,
	}})
	d := NewDriver(registry, Config{})
	_, err := d.Execute(context.Background(), `@include "a.txt"`, "main.bld", Context{})
	require.Error(t, err)
	var circErr builderrors.CircularIncludeError
	require.ErrorAs(t, err, &circErr)
}

func TestUnknownSourceFails(t *testing.T) {
	registry := reader.NewRegistry()
	d := NewDriver(registry, Config{})
	_, err := d.Execute(context.Background(), `@include "nope.txt"`, "main.bld", Context{})
	require.Error(t, err)
	var unkErr builderrors.UnknownSourceError
	require.ErrorAs(t, err, &unkErr)
}

func TestUnterminatedIfFails(t *testing.T) {
	_, err := run(t, "@if true\nA")
	require.Error(t, err)
	var syn builderrors.SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestUnterminatedMacroFails(t *testing.T) {
	_, err := run(t, "@macro m()\nbody")
	require.Error(t, err)
	var syn builderrors.SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestStraySyntaxDirectivesFail(t *testing.T) {
	cases := []string{"@endif", "@else", "@elseif true", "@endmacro", "@end"}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			_, err := run(t, c)
			require.Error(t, err)
			var syn builderrors.SyntaxError
			require.ErrorAs(t, err, &syn)
		})
	}
}

func TestLineControlMarkersEmittedAcrossInclude(t *testing.T) {
	registry := reader.NewRegistry(&fakeReader{files: map[string]string{"inc.txt": "INSIDE"}})
	d := NewDriver(registry, Config{GenerateLineControlStatements: true})
	out, err := d.Execute(context.Background(), "first\n@include \"inc.txt\"\nlast", "main.bld", Context{})
	require.NoError(t, err)
	assert.Contains(t, out, `#line 1 "main.bld"`)
	assert.Contains(t, out, `#line 1 "inc.txt"`)
	assert.Contains(t, out, `#line 3 "main.bld"`)
}

func TestDependencyPinRoundTrip(t *testing.T) {
	registry := reader.NewRegistry(&fakeReader{files: map[string]string{"inc.txt": "pinned content"}})

	first := NewDriver(registry, Config{SaveDependencies: true})
	out1, err := first.Execute(context.Background(), `@include "inc.txt"`, "main.bld", Context{})
	require.NoError(t, err)

	// fakeReader never populates CommitID, so there is nothing to pin;
	// this exercises that Dependencies stays untouched rather than
	// gaining a bogus empty-string pin.
	assert.NotContains(t, first.Dependencies, "inc.txt")

	second := NewDriver(registry, Config{})
	second.Dependencies = first.Dependencies
	out2, err := second.Execute(context.Background(), `@include "inc.txt"`, "main.bld", Context{})
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}
