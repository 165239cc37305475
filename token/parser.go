// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package token

import (
	"fmt"
	"strings"

	"github.com/kortschak/luna/avar"
)

// variadicFuncs names the vector constructor functions that accept a
// variable number of arguments and are rewritten by the preprocessor
// to carry their arity as a trailing integer argument (spec §4.4:
// "f(a,b,c) is rewritten to f_func(a,b,c,N)").
var variadicFuncs = map[string]bool{
	"num": true, "int": true, "txt": true, "bool": true, "c": true,
}

// ParseError marks a hard parse failure; the evaluator is marked
// invalid on receipt (spec §4.4, §7).
type ParseError struct{ msg string }

func (e *ParseError) Error() string { return e.msg }

func parseErrf(format string, args ...any) error {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// SplitStatements splits a script into ';'-separated statements,
// respecting nested parens/brackets and string literals so that a
// ';' inside a {…} string or inside c(...) doesn't split a statement.
func SplitStatements(script string) []string {
	var stmts []string
	var b strings.Builder
	depthParen, depthBrack, depthBrace := 0, 0, 0
	inStr := false
	r := []rune(script)
	for i := 0; i < len(r); i++ {
		c := r[i]
		switch {
		case c == '\'' && depthBrace == 0:
			inStr = !inStr
			b.WriteRune(c)
		case inStr:
			b.WriteRune(c)
		case c == '{':
			depthBrace++
			b.WriteRune(c)
		case c == '}':
			depthBrace--
			b.WriteRune(c)
		case c == '(':
			depthParen++
			b.WriteRune(c)
		case c == ')':
			depthParen--
			b.WriteRune(c)
		case c == '[':
			depthBrack++
			b.WriteRune(c)
		case c == ']':
			depthBrack--
			b.WriteRune(c)
		case c == ';' && depthParen == 0 && depthBrack == 0 && depthBrace == 0:
			stmts = append(stmts, b.String())
			b.Reset()
		default:
			b.WriteRune(c)
		}
	}
	if strings.TrimSpace(b.String()) != "" {
		stmts = append(stmts, b.String())
	}
	var out []string
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// preprocessIndex rewrites "x[y]" occurrences to "element(x,y)",
// scanning backward from each '[' to find the start of the variable
// or call expression it indexes, respecting nested parentheses
// (spec §4.4).
func preprocessIndex(toks []rawTok) []rawTok {
	for {
		idx := -1
		for i, t := range toks {
			if t.kind == rawOp && t.op == opIndexOpen {
				idx = i
				break
			}
		}
		if idx < 0 {
			return toks
		}
		i := idx
		depth := 1
		j := i + 1
		for j < len(toks) && depth > 0 {
			if toks[j].kind == rawOp && toks[j].op == opIndexOpen {
				depth++
			} else if toks[j].kind == rawOp && toks[j].op == opIndexClose {
				depth--
				if depth == 0 {
					break
				}
			}
			j++
		}
		closeIdx := j

		start := i - 1
		if start < 0 {
			// malformed; drop the bracket to avoid infinite loop
			toks = append(append(append([]rawTok{}, toks[:i]...), toks[i+1:]...))
			continue
		}
		if toks[start].kind == rawRParen {
			d := 1
			k := start - 1
			for k >= 0 && d > 0 {
				if toks[k].kind == rawRParen {
					d++
				} else if toks[k].kind == rawLParen {
					d--
				}
				if d > 0 {
					k--
				}
			}
			if k-1 >= 0 && toks[k-1].kind == rawIdent {
				start = k - 1
			} else {
				start = k
			}
		} else if toks[start].kind == rawIdent {
			// plain variable, start already correct
		} else {
			start = i // no base expression; shouldn't happen for valid input
		}

		base := append([]rawTok(nil), toks[:start]...)
		inner := append([]rawTok(nil), toks[start:i]...)
		idxExpr := append([]rawTok(nil), toks[i+1:closeIdx]...)
		rest := append([]rawTok(nil), toks[closeIdx+1:]...)

		rewritten := append([]rawTok{}, base...)
		rewritten = append(rewritten, rawTok{kind: rawIdent, text: "element", call: true})
		rewritten = append(rewritten, rawTok{kind: rawLParen})
		rewritten = append(rewritten, inner...)
		rewritten = append(rewritten, rawTok{kind: rawComma})
		rewritten = append(rewritten, idxExpr...)
		rewritten = append(rewritten, rawTok{kind: rawRParen})
		rewritten = append(rewritten, rest...)
		toks = rewritten
	}
}

// Parse compiles a single statement (no ';') into RPN form.
func Parse(stmt string) ([]Token, error) {
	raw, err := lex(stmt)
	if err != nil {
		return nil, err
	}
	raw = preprocessIndex(raw)
	return shuntingYard(raw)
}

type parenFrame struct {
	isCall   bool
	name     string
	commas   int
	sawToken bool
}

// shuntingYard converts a raw token stream into an RPN Token stream,
// rewriting variadic function calls to carry their arity (spec §4.4).
func shuntingYard(raw []rawTok) ([]Token, error) {
	var output []Token
	var opStack []rawTok
	var frames []parenFrame

	popOperator := func() {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		output = append(output, Token{Kind: KindOperator, Op: top.op, Unary: top.text == "unary" || top.op == OpNot})
	}

	markToken := func() {
		if len(frames) > 0 {
			frames[len(frames)-1].sawToken = true
		}
	}

	for i := 0; i < len(raw); i++ {
		t := raw[i]
		switch t.kind {
		case rawNumber:
			output = append(output, NewValue(parseNumberLiteral(t.text)))
			markToken()
		case rawString:
			output = append(output, NewValue(avar.NewTxt(t.text)))
			markToken()
		case rawBool:
			output = append(output, NewValue(avar.NewBool(t.text == "true")))
			markToken()
		case rawIdent:
			if t.call {
				opStack = append(opStack, rawTok{kind: rawIdent, text: t.text})
			} else {
				output = append(output, NewVariable(t.text))
				markToken()
			}
		case rawComma:
			for len(opStack) > 0 && opStack[len(opStack)-1].kind != rawLParen {
				popOperator()
			}
			if len(frames) > 0 {
				frames[len(frames)-1].commas++
			}
		case rawLParen:
			isCall := false
			name := ""
			if len(opStack) > 0 && opStack[len(opStack)-1].kind == rawIdent {
				isCall = true
				name = opStack[len(opStack)-1].text
			}
			opStack = append(opStack, rawTok{kind: rawLParen})
			frames = append(frames, parenFrame{isCall: isCall, name: name})
		case rawRParen:
			for len(opStack) > 0 && opStack[len(opStack)-1].kind != rawLParen {
				popOperator()
			}
			if len(opStack) == 0 || len(frames) == 0 {
				return nil, parseErrf("mismatched parentheses")
			}
			opStack = opStack[:len(opStack)-1] // pop '('
			fr := frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			if fr.isCall {
				if len(opStack) > 0 && opStack[len(opStack)-1].kind == rawIdent {
					opStack = opStack[:len(opStack)-1]
				}
				argc := 0
				if fr.sawToken {
					argc = fr.commas + 1
				}
				if variadicFuncs[fr.name] {
					output = append(output, NewValue(avar.NewInt(argc)))
					output = append(output, NewFunction(fr.name+"_func", argc+1))
				} else {
					output = append(output, NewFunction(fr.name, argc))
				}
			}
			markToken()
		case rawOp:
			op := t.op
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				if top.kind != rawOp {
					break
				}
				topUnary := top.text == "unary" || top.op == OpNot
				curUnary := t.text == "unary" || op == OpNot
				var topPrec, curPrec int
				if topUnary {
					topPrec = OpNot.precedence()
				} else {
					topPrec = top.op.precedence()
				}
				if curUnary {
					curPrec = OpNot.precedence()
				} else {
					curPrec = op.precedence()
				}
				rightAssoc := curUnary || op.rightAssoc()
				if topPrec > curPrec || (topPrec == curPrec && !rightAssoc) {
					popOperator()
					continue
				}
				break
			}
			opStack = append(opStack, rawTok{kind: rawOp, op: op, text: t.text})
		}
	}
	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		if top.kind == rawLParen {
			return nil, parseErrf("mismatched parentheses")
		}
		popOperator()
	}
	return output, nil
}
