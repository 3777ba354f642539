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
	"math"
	"strings"

	"github.com/builder-lang/builder/builderrors"
	"github.com/builder-lang/builder/location"
	"github.com/builder-lang/builder/value"
)

// Eval tree-walks node against env, Builder's single evaluation
// entry point for both #if-style conditions and @{...} splices.
func Eval(node Node, env *Environment) (value.Value, error) {
	switch n := node.(type) {
	case NumberLit:
		return value.NumberValue(n.Value), nil
	case StringLit:
		return value.StringValue(n.Value), nil
	case BoolLit:
		return value.BoolValue(n.Value), nil
	case NullLit:
		return value.NullValue(), nil
	case LineBuiltin:
		return value.NumberValue(float64(n.At.Line)), nil
	case FileBuiltin:
		return value.StringValue(n.At.File), nil
	case ArrayLit:
		elems := make([]value.Value, len(n.Elems))
		for i, e := range n.Elems {
			v, err := Eval(e, env)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return value.ArrayValue(elems), nil
	case Ident:
		v, _ := env.Lookup(n.Name)
		return v, nil
	case DefinedCall:
		return value.BoolValue(env.Defined(n.Name)), nil
	case Unary:
		return evalUnary(n, env)
	case Binary:
		return evalBinary(n, env)
	case Ternary:
		cond, err := Eval(n.Cond, env)
		if err != nil {
			return value.Value{}, err
		}
		if cond.Truthy() {
			return Eval(n.Then, env)
		}
		return Eval(n.Else, env)
	case Member:
		return evalMember(n, env)
	case Call:
		return evalCall(n, env)
	default:
		return value.Value{}, builderrors.ExprError{Loc: node.Loc(), Message: "unhandled expression node"}
	}
}

func evalUnary(n Unary, env *Environment) (value.Value, error) {
	x, err := Eval(n.X, env)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case "!":
		return value.BoolValue(!x.Truthy()), nil
	case "-":
		if x.Kind() != value.Number {
			return value.Value{}, builderrors.TypeError{Loc: n.At, Message: "unary '-' requires a number"}
		}
		return value.NumberValue(-x.Num()), nil
	case "+":
		if x.Kind() != value.Number {
			return value.Value{}, builderrors.TypeError{Loc: n.At, Message: "unary '+' requires a number"}
		}
		return value.NumberValue(x.Num()), nil
	default:
		return value.Value{}, builderrors.ExprError{Loc: n.At, Message: "unknown unary operator " + n.Op}
	}
}

func evalBinary(n Binary, env *Environment) (value.Value, error) {
	// && and || are short-circuiting: the result is the last evaluated
	// operand, not necessarily coerced to bool.
	if n.Op == "&&" {
		l, err := Eval(n.L, env)
		if err != nil {
			return value.Value{}, err
		}
		if !l.Truthy() {
			return l, nil
		}
		return Eval(n.R, env)
	}
	if n.Op == "||" {
		l, err := Eval(n.L, env)
		if err != nil {
			return value.Value{}, err
		}
		if l.Truthy() {
			return l, nil
		}
		return Eval(n.R, env)
	}

	l, err := Eval(n.L, env)
	if err != nil {
		return value.Value{}, err
	}
	r, err := Eval(n.R, env)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case "==":
		return value.BoolValue(l.Equal(r)), nil
	case "!=":
		return value.BoolValue(!l.Equal(r)), nil
	case "<", "<=", ">", ">=":
		return evalOrderCompare(n.At, n.Op, l, r)
	case "+":
		return evalAdd(l, r), nil
	case "-", "*", "/", "%":
		return evalArith(n.At, n.Op, l, r)
	default:
		return value.Value{}, builderrors.ExprError{Loc: n.At, Message: "unknown binary operator " + n.Op}
	}
}

func evalOrderCompare(loc location.Location, op string, l, r value.Value) (value.Value, error) {
	var cmp int
	switch {
	case l.Kind() == value.Number && r.Kind() == value.Number:
		cmp = compareFloat(l.Num(), r.Num())
	case l.Kind() == value.String && r.Kind() == value.String:
		cmp = strings.Compare(l.Str(), r.Str())
	default:
		return value.Value{}, builderrors.TypeError{Loc: loc, Message: "'" + op + "' requires two numbers or two strings"}
	}
	switch op {
	case "<":
		return value.BoolValue(cmp < 0), nil
	case "<=":
		return value.BoolValue(cmp <= 0), nil
	case ">":
		return value.BoolValue(cmp > 0), nil
	case ">=":
		return value.BoolValue(cmp >= 0), nil
	}
	return value.Value{}, builderrors.TypeError{Loc: loc, Message: "unknown comparator " + op}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// evalAdd implements Builder's "+" rule: arithmetic on two numbers,
// concatenation otherwise. A string operand on either side coerces the
// other through its canonical toString.
func evalAdd(l, r value.Value) value.Value {
	if l.Kind() == value.Number && r.Kind() == value.Number {
		return value.NumberValue(l.Num() + r.Num())
	}
	return value.StringValue(l.ToString() + r.ToString())
}

func evalArith(loc location.Location, op string, l, r value.Value) (value.Value, error) {
	if l.Kind() != value.Number || r.Kind() != value.Number {
		return value.Value{}, builderrors.TypeError{Loc: loc, Message: "'" + op + "' requires two numbers"}
	}
	a, b := l.Num(), r.Num()
	switch op {
	case "-":
		return value.NumberValue(a - b), nil
	case "*":
		return value.NumberValue(a * b), nil
	case "/":
		if b == 0 {
			return value.NumberValue(math.NaN()), nil
		}
		return value.NumberValue(a / b), nil
	case "%":
		if b == 0 {
			return value.NumberValue(math.NaN()), nil
		}
		return value.NumberValue(math.Mod(a, b)), nil
	}
	return value.Value{}, builderrors.TypeError{Loc: loc, Message: "unknown arithmetic operator " + op}
}

func evalMember(n Member, env *Environment) (value.Value, error) {
	x, err := Eval(n.X, env)
	if err != nil {
		return value.Value{}, err
	}
	if n.Index != nil {
		idx, err := Eval(n.Index, env)
		if err != nil {
			return value.Value{}, err
		}
		return memberByIndex(x, idx), nil
	}
	return memberByName(x, n.Name), nil
}

func memberByName(x value.Value, name string) value.Value {
	switch x.Kind() {
	case value.String:
		if name == "length" {
			return value.NumberValue(float64(len([]rune(x.Str()))))
		}
		return value.NullValue()
	case value.Array:
		if name == "length" {
			return value.NumberValue(float64(len(x.Elems())))
		}
		return value.NullValue()
	default:
		return value.NullValue()
	}
}

func memberByIndex(x value.Value, idx value.Value) value.Value {
	if idx.Kind() != value.Number {
		return value.NullValue()
	}
	i := int(idx.Num())
	switch x.Kind() {
	case value.String:
		rs := []rune(x.Str())
		if i < 0 || i >= len(rs) {
			return value.NullValue()
		}
		return value.StringValue(string(rs[i]))
	case value.Array:
		elems := x.Elems()
		if i < 0 || i >= len(elems) {
			return value.NullValue()
		}
		return elems[i]
	default:
		return value.NullValue()
	}
}

func evalCall(n Call, env *Environment) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}
	switch n.Name {
	case "min":
		return reduceNumbers(n.At, "min", args, func(a, b float64) float64 { return math.Min(a, b) })
	case "max":
		return reduceNumbers(n.At, "max", args, func(a, b float64) float64 { return math.Max(a, b) })
	case "abs":
		if len(args) != 1 || args[0].Kind() != value.Number {
			return value.Value{}, builderrors.TypeError{Loc: n.At, Message: "abs(n) requires exactly one numeric argument"}
		}
		return value.NumberValue(math.Abs(args[0].Num())), nil
	default:
		return value.Value{}, builderrors.NameError{Loc: n.At, Name: n.Name}
	}
}

func reduceNumbers(loc location.Location, name string, args []value.Value, fn func(a, b float64) float64) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, builderrors.TypeError{Loc: loc, Message: name + "() requires at least one argument"}
	}
	acc := 0.0
	for i, a := range args {
		if a.Kind() != value.Number {
			return value.Value{}, builderrors.TypeError{Loc: loc, Message: name + "() requires numeric arguments"}
		}
		if i == 0 {
			acc = a.Num()
			continue
		}
		acc = fn(acc, a.Num())
	}
	return value.NumberValue(acc), nil
}
