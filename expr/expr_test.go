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
	"testing"

	"github.com/builder-lang/builder/location"
	"github.com/builder-lang/builder/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalText(t *testing.T, src string, env *Environment) value.Value {
	t.Helper()
	node, err := Parse(src, location.Init("test.ext"))
	require.NoError(t, err)
	v, err := Eval(node, env)
	require.NoError(t, err)
	return v
}

func TestExprEvaluation(t *testing.T) {
	cases := []struct {
		name     string
		expr     string
		expected value.Value
	}{
		{"min builtin", "min(1,2,3)", value.NumberValue(1)},
		{"max builtin", "max(1,2,3)", value.NumberValue(3)},
		{"abs builtin", "abs(-5)", value.NumberValue(5)},
		{"arithmetic precedence", "123 * 456", value.NumberValue(56088)},
		{"string concat", `"Hello, " + "world"`, value.StringValue("Hello, world")},
		{"string plus number", `"x" + 1`, value.StringValue("x1")},
		{"string plus null", `"s" + null`, value.StringValue("snull")},
		{"equality same kind", "1 == 1", value.BoolValue(true)},
		{"equality cross kind", `1 == "1"`, value.BoolValue(false)},
		{"logical and short circuit", "false && 1", value.BoolValue(false)},
		{"logical or short circuit value", `null || "fallback"`, value.StringValue("fallback")},
		{"ternary true", "1 == 1 ? 'yes' : 'no'", value.StringValue("yes")},
		{"ternary false", "1 == 2 ? 'yes' : 'no'", value.StringValue("no")},
		{"string length", `"abc".length`, value.NumberValue(3)},
		{"string index", `"abc"[1]`, value.StringValue("b")},
		{"array literal and index", "[1,2,3][2]", value.NumberValue(3)},
		{"division by zero is NaN", "1 / 0", value.NumberValue(nanFloat())},
		{"modulo by zero is NaN", "1 % 0", value.NumberValue(nanFloat())},
		{"unary bang", "!0", value.BoolValue(true)},
		{"undefined identifier is null", "nope", value.NullValue()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evalText(t, tc.expr, NewEnvironment())
			if tc.name == "division by zero is NaN" || tc.name == "modulo by zero is NaN" {
				assert.True(t, got.Num() != got.Num(), "expected NaN")
				return
			}
			assert.Equal(t, tc.expected.ToString(), got.ToString())
			assert.Equal(t, tc.expected.Kind(), got.Kind())
		})
	}
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}

func TestDefinedBuiltinTakesIdentifierNotValue(t *testing.T) {
	env := NewEnvironment()
	env.SetGlobal("FOO", value.NumberValue(1))

	assert.True(t, evalText(t, "defined(FOO)", env).Truthy())
	assert.False(t, evalText(t, "defined(BAR)", env).Truthy())
}

func TestOrderComparisonRequiresMatchingTypes(t *testing.T) {
	node, err := Parse(`1 < "a"`, location.Init("test.ext"))
	require.NoError(t, err)
	_, err = Eval(node, NewEnvironment())
	require.Error(t, err)
}

func TestLineAndFileBuiltinsResolveToTokenLocation(t *testing.T) {
	loc := location.Location{File: "abc.ext", Line: 42, Col: 1}
	node, err := Parse("__LINE__", loc)
	require.NoError(t, err)
	v, err := Eval(node, NewEnvironment())
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.Num())

	node, err = Parse("__FILE__", loc)
	require.NoError(t, err)
	v, err = Eval(node, NewEnvironment())
	require.NoError(t, err)
	assert.Equal(t, "abc.ext", v.Str())
}

func TestEnvironmentScopingPushPop(t *testing.T) {
	env := NewEnvironment()
	env.SetGlobal("p", value.StringValue("outer"))

	env.Push(map[string]value.Value{"p": value.StringValue("inner")})
	assert.Equal(t, "inner", evalText(t, "p", env).Str())
	env.Pop()
	assert.Equal(t, "outer", evalText(t, "p", env).Str())
}
