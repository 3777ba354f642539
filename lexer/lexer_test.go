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

package lexer

import (
	"testing"

	"github.com/builder-lang/builder/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDirectiveLines(t *testing.T) {
	cases := []struct {
		raw       string
		directive string
		rest      string
	}{
		{`@set SOMEVAR min(1,2,3)`, "set", "SOMEVAR min(1,2,3)"},
		{`@if __FILE__ == 'abc.ext'`, "if", "__FILE__ == 'abc.ext'"},
		{`  @endif`, "endif", ""},
		{`@macro m(a,b,c)`, "macro", "m(a,b,c)"},
		{`@error "Platform is " + PLATFORM`, "error", `"Platform is " + PLATFORM`},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			line, err := Classify(tc.raw, location.Init("f"))
			require.NoError(t, err)
			assert.Equal(t, DirectiveKind, line.Kind)
			assert.Equal(t, tc.directive, line.Directive)
			assert.Equal(t, tc.rest, line.Rest)
		})
	}
}

func TestClassifyStripsCommentsFromDirectiveRest(t *testing.T) {
	line, err := Classify(`@set X 1 // a trailing comment`, location.Init("f"))
	require.NoError(t, err)
	assert.Equal(t, "X 1 ", line.Rest)

	line, err = Classify(`@set X 1 /* inline */ + 2`, location.Init("f"))
	require.NoError(t, err)
	assert.Equal(t, "X 1  + 2", line.Rest)
}

func TestClassifyTextLineNoSplices(t *testing.T) {
	line, err := Classify("plain passthrough text", location.Init("f"))
	require.NoError(t, err)
	assert.Equal(t, TextKind, line.Kind)
	require.Len(t, line.Segments, 1)
	assert.False(t, line.Segments[0].IsSplice)
	assert.Equal(t, "plain passthrough text", line.Segments[0].Text)
}

func TestClassifyTextLineWithSplice(t *testing.T) {
	line, err := Classify(`Hello, @{name}, the result is: @{123 * 456}.`, location.Init("f"))
	require.NoError(t, err)
	require.Len(t, line.Segments, 5)
	assert.Equal(t, "Hello, ", line.Segments[0].Text)
	assert.True(t, line.Segments[1].IsSplice)
	assert.Equal(t, "name", line.Segments[1].Text)
	assert.Equal(t, ", the result is: ", line.Segments[2].Text)
	assert.True(t, line.Segments[3].IsSplice)
	assert.Equal(t, "123 * 456", line.Segments[3].Text)
	assert.Equal(t, ".", line.Segments[4].Text)
}

func TestClassifySpliceIgnoresBracesInsideStringLiterals(t *testing.T) {
	line, err := Classify(`@{ "a}b" + "c" }`, location.Init("f"))
	require.NoError(t, err)
	require.Len(t, line.Segments, 1)
	assert.True(t, line.Segments[0].IsSplice)
	assert.Equal(t, ` "a}b" + "c" `, line.Segments[0].Text)
}

func TestClassifyUnterminatedSpliceFails(t *testing.T) {
	_, err := Classify(`Hello @{name`, location.Init("f"))
	require.Error(t, err)
}

func TestClassifyTextPassthroughIdentity(t *testing.T) {
	for _, raw := range []string{"", "no directives here", "   indented text"} {
		line, err := Classify(raw, location.Init("f"))
		require.NoError(t, err)
		var rebuilt string
		for _, seg := range line.Segments {
			rebuilt += seg.Text
		}
		assert.Equal(t, raw, rebuilt)
	}
}
