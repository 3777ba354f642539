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
	"fmt"
	"strings"
	"unicode"

	"github.com/builder-lang/builder/location"
	"github.com/builder-lang/builder/token"
)

// scan tokenizes a single expression's source text, rooted at loc
// (the location of text[0]). It recognizes the full expression
// grammar token set: numbers, quoted strings, identifiers/keywords,
// and multi-character operators, skipping interior whitespace.
func scan(text string, loc location.Location) ([]token.Token, error) {
	var toks []token.Token
	runes := []rune(text)
	i := 0
	cur := loc

	advance := func(n int) {
		cur = cur.AdvancedBy(string(runes[i : i+n]))
		i += n
	}

	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			advance(1)

		case c == '"' || c == '\'':
			start := cur
			quote := c
			var sb strings.Builder
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				if runes[j] == '\\' && j+1 < len(runes) {
					esc, ok := unescape(runes[j+1])
					if !ok {
						return nil, fmt.Errorf("%s: invalid escape sequence '\\%c'", cur, runes[j+1])
					}
					sb.WriteRune(esc)
					j += 2
					continue
				}
				sb.WriteRune(runes[j])
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("%s: unterminated string literal", start)
			}
			toks = append(toks, token.Token{Kind: token.String, Text: sb.String(), Loc: start})
			advance(j + 1 - i)

		case unicode.IsDigit(c):
			start := cur
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			if j < len(runes) && (runes[j] == 'e' || runes[j] == 'E') {
				j++
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
			}
			toks = append(toks, token.Token{Kind: token.Number, Text: string(runes[i:j]), Loc: start})
			advance(j - i)

		case isIdentStart(c):
			start := cur
			j := i
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			toks = append(toks, token.Token{Kind: token.Ident, Text: string(runes[i:j]), Loc: start})
			advance(j - i)

		default:
			start := cur
			if op, n := matchOperator(runes[i:]); op != "" {
				toks = append(toks, token.Token{Kind: token.Op, Text: op, Loc: start})
				advance(n)
				continue
			}
			return nil, fmt.Errorf("%s: unexpected character %q", cur, c)
		}
	}
	toks = append(toks, token.Token{Kind: token.EOF, Text: "", Loc: cur})
	return toks, nil
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func unescape(c rune) (rune, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	default:
		return 0, false
	}
}

// twoCharOps and punctuation recognized by the expression grammar,
// ordered so that longer operators are matched before their prefixes.
var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

func matchOperator(rs []rune) (string, int) {
	if len(rs) >= 2 {
		pair := string(rs[:2])
		for _, op := range twoCharOps {
			if op == pair {
				return op, 2
			}
		}
	}
	switch rs[0] {
	case '+', '-', '*', '/', '%', '!', '<', '>', '(', ')', '[', ']', '.', ',', '?', ':', '=':
		return string(rs[0]), 1
	default:
		return "", 0
	}
}
