// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package token

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kortschak/luna/avar"
)

// rawKind distinguishes raw lexical categories before the shunting-yard
// parser assigns semantic Kinds.
type rawKind int

const (
	rawNumber rawKind = iota
	rawString
	rawBool
	rawIdent // identifier, possibly a function call if followed by '('
	rawOp
	rawLParen
	rawRParen
	rawComma
)

type rawTok struct {
	kind rawKind
	text string
	op   Op
	call bool // identifier immediately followed by '('
}

// lex tokenizes a single statement (no top-level ';'). It disambiguates
// unary +/- and leading '.' using a previous_value flag exactly as
// described in spec §4.4.
func lex(s string) ([]rawTok, error) {
	var out []rawTok
	r := []rune(s)
	n := len(r)
	i := 0
	prevValue := false // true if previous token could end an expression

	peekIsCall := func(j int) bool {
		for j < n && unicode.IsSpace(r[j]) {
			j++
		}
		return j < n && r[j] == '('
	}

	for i < n {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
			continue

		case c == '\'':
			// single-quoted string literal
			j := i + 1
			var b strings.Builder
			for j < n && r[j] != '\'' {
				b.WriteRune(r[j])
				j++
			}
			if j >= n {
				return nil, errf("unterminated string literal")
			}
			out = append(out, rawTok{kind: rawString, text: b.String()})
			i = j + 1
			prevValue = true

		case c == '{':
			// nestable {...} string literal
			depth := 1
			j := i + 1
			var b strings.Builder
			for j < n && depth > 0 {
				if r[j] == '{' {
					depth++
				} else if r[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				b.WriteRune(r[j])
				j++
			}
			if depth != 0 {
				return nil, errf("unterminated { } string literal")
			}
			out = append(out, rawTok{kind: rawString, text: b.String()})
			i = j + 1
			prevValue = true

		case c == '(':
			out = append(out, rawTok{kind: rawLParen})
			i++
			prevValue = false

		case c == ')':
			out = append(out, rawTok{kind: rawRParen})
			i++
			prevValue = true

		case c == ',':
			out = append(out, rawTok{kind: rawComma})
			i++
			prevValue = false

		case c == '[':
			out = append(out, rawTok{kind: rawOp, op: opIndexOpen})
			i++
			prevValue = false

		case c == ']':
			out = append(out, rawTok{kind: rawOp, op: opIndexClose})
			i++
			prevValue = true

		case c == '+' || c == '-':
			if !prevValue {
				// unary +/-: unary '-' is emitted as a unary operator
				// marker.
				if c == '-' {
					out = append(out, rawTok{kind: rawOp, op: OpSub, text: "unary"})
				}
				// unary '+' is a no-op and can be dropped.
				i++
				prevValue = false
				continue
			}
			op := OpAdd
			if c == '-' {
				op = OpSub
			}
			out = append(out, rawTok{kind: rawOp, op: op})
			i++
			prevValue = false

		case c == '*':
			out = append(out, rawTok{kind: rawOp, op: OpMul})
			i++
			prevValue = false
		case c == '/':
			out = append(out, rawTok{kind: rawOp, op: OpDiv})
			i++
			prevValue = false
		case c == '%':
			out = append(out, rawTok{kind: rawOp, op: OpMod})
			i++
			prevValue = false

		case c == '!':
			if i+1 < n && r[i+1] == '=' {
				out = append(out, rawTok{kind: rawOp, op: OpNeq})
				i += 2
			} else {
				out = append(out, rawTok{kind: rawOp, op: OpNot})
				i++
			}
			prevValue = false

		case c == '=':
			switch {
			case i+1 < n && r[i+1] == '=':
				out = append(out, rawTok{kind: rawOp, op: OpEq})
				i += 2
			case i+1 < n && r[i+1] == '~':
				out = append(out, rawTok{kind: rawOp, op: OpMatch})
				i += 2
			default:
				out = append(out, rawTok{kind: rawOp, op: OpAssign})
				i++
			}
			prevValue = false

		case c == '<':
			if i+1 < n && r[i+1] == '=' {
				out = append(out, rawTok{kind: rawOp, op: OpLe})
				i += 2
			} else {
				out = append(out, rawTok{kind: rawOp, op: OpLt})
				i++
			}
			prevValue = false

		case c == '>':
			if i+1 < n && r[i+1] == '=' {
				out = append(out, rawTok{kind: rawOp, op: OpGe})
				i += 2
			} else {
				out = append(out, rawTok{kind: rawOp, op: OpGt})
				i++
			}
			prevValue = false

		case c == '&' && i+1 < n && r[i+1] == '&':
			out = append(out, rawTok{kind: rawOp, op: OpAnd})
			i += 2
			prevValue = false

		case c == '|' && i+1 < n && r[i+1] == '|':
			out = append(out, rawTok{kind: rawOp, op: OpOr})
			i += 2
			prevValue = false

		case unicode.IsDigit(c) || (c == '.' && i+1 < n && unicode.IsDigit(r[i+1]) && !prevValue):
			j := i
			for j < n && (unicode.IsDigit(r[j]) || r[j] == '.' || r[j] == 'e' || r[j] == 'E' ||
				((r[j] == '+' || r[j] == '-') && j > i && (r[j-1] == 'e' || r[j-1] == 'E'))) {
				j++
			}
			out = append(out, rawTok{kind: rawNumber, text: string(r[i:j])})
			i = j
			prevValue = true

		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < n && (unicode.IsLetter(r[j]) || unicode.IsDigit(r[j]) || r[j] == '_' || r[j] == '.') {
				j++
			}
			word := string(r[i:j])
			switch strings.ToLower(word) {
			case "true":
				out = append(out, rawTok{kind: rawBool, text: "true"})
				prevValue = true
			case "false":
				out = append(out, rawTok{kind: rawBool, text: "false"})
				prevValue = true
			default:
				call := peekIsCall(j)
				out = append(out, rawTok{kind: rawIdent, text: word, call: call})
				prevValue = !call
			}
			i = j

		default:
			return nil, errf("unexpected character %q", c)
		}
	}
	return out, nil
}

// opIndexOpen/opIndexClose are internal pseudo-operators used only
// during lexing/preprocessing to mark '[' and ']'; they never appear
// in the final RPN stream.
const (
	opIndexOpen Op = 1000 + iota
	opIndexClose
)

func parseNumberLiteral(text string) avar.Value {
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return avar.NewDbl(f)
		}
	}
	i, err := strconv.Atoi(text)
	if err == nil {
		return avar.NewInt(i)
	}
	f, _ := strconv.ParseFloat(text, 64)
	return avar.NewDbl(f)
}

type lexError struct{ msg string }

func (e *lexError) Error() string { return e.msg }

func errf(format string, args ...any) error {
	return &lexError{msg: fmt.Sprintf(format, args...)}
}
