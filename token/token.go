// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package token implements the expression evaluator: a shunting-yard
// parser and RPN executor over a small typed expression language bound
// to annotation/channel instance data (see spec §4.4).
package token

import (
	"fmt"

	"github.com/kortschak/luna/avar"
)

// Kind identifies what a Token carries: a value, an operator, a
// function call, a variable reference, a parenthesis, or an argument
// separator.
type Kind int

const (
	KindValue Kind = iota
	KindOperator
	KindFunction
	KindVariable
	KindLParen
	KindRParen
	KindSeparator
)

// Op identifies an operator variant.
type Op int

const (
	OpNone Op = iota
	OpNot
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpMatch // =~
	OpNeq
	OpAnd
	OpOr
	OpAssign
)

// precedence returns the binding power of op; higher binds tighter.
// Table from spec §4.4, high to low: ! ; * / % ; + - ; < <= > >= ;
// == =~ != ; && ; || ; =
func (op Op) precedence() int {
	switch op {
	case OpNot:
		return 7
	case OpMul, OpDiv, OpMod:
		return 6
	case OpAdd, OpSub:
		return 5
	case OpLt, OpLe, OpGt, OpGe:
		return 4
	case OpEq, OpMatch, OpNeq:
		return 3
	case OpAnd:
		return 2
	case OpOr:
		return 1
	case OpAssign:
		return 0
	default:
		return -1
	}
}

// rightAssoc reports whether op is right-associative. Spec §4.4:
// "Right-associative: = !".
func (op Op) rightAssoc() bool {
	return op == OpAssign || op == OpNot
}

func (op Op) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "=="
	case OpMatch:
		return "=~"
	case OpNeq:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpAssign:
		return "="
	default:
		return "?"
	}
}

// isUnaryCapable reports whether op may additionally appear as a unary
// operator (+/-, handled via the lexer's previous_value flag, and !).
func isUnaryCapable(op Op) bool {
	return op == OpAdd || op == OpSub || op == OpNot
}

// Token is the evaluator's value carrier. In addition to carrying an
// avar.Value, a Token may represent an operator, function, variable
// reference, parenthesis, or argument separator.
//
// Vector Tokens carry a subset view (ve) mapping logical positions to
// storage positions in the underlying Value. A nil ve means the
// identity view (ve[i] == i for i in [0,fullsize())).
type Token struct {
	Kind Kind

	Op       Op
	Name     string // function or variable name
	Arity    int    // for Function tokens with explicit arity (variadic rewrite)
	Unary    bool   // this Op token is in unary position

	Value avar.Value
	ve    []int // subset view, logical -> storage index; nil == identity
}

// NewValue wraps v as a value Token with an identity view.
func NewValue(v avar.Value) Token {
	return Token{Kind: KindValue, Value: v}
}

// NewOperator returns an operator Token.
func NewOperator(op Op) Token {
	return Token{Kind: KindOperator, Op: op}
}

// NewVariable returns a deferred variable-reference Token. Variable
// tokens are resolved against the evaluator's bound Instance when an
// operator or function pops them; assignment statements are split off
// before RPN evaluation, so no operator needs the bare name.
func NewVariable(name string) Token {
	return Token{Kind: KindVariable, Name: name}
}

// NewFunction returns a function-call Token with a fixed or (when
// arity >= 0) variadic-rewritten arity.
func NewFunction(name string, arity int) Token {
	return Token{Kind: KindFunction, Name: name, Arity: arity}
}

// Size returns the number of logical elements: len(ve) if a subset
// view is active, otherwise Value.Size().
func (t Token) Size() int {
	if t.ve != nil {
		return len(t.ve)
	}
	return t.Value.Size()
}

// FullSize returns the number of elements in the underlying storage,
// ignoring any subset view.
func (t Token) FullSize() int {
	return t.Value.Size()
}

// View returns the subset index map, or nil for the identity view.
func (t Token) View() []int { return t.ve }

// WithView returns a copy of t restricted to the given subset of
// storage positions.
func (t Token) WithView(ve []int) Token {
	t.ve = ve
	return t
}

// Prune materializes the subset view into fresh dense storage and
// clears the view, as required before exporting a value to the
// instance store (spec §9).
func (t Token) Prune() Token {
	if t.ve == nil {
		return t
	}
	switch t.Value.Tag() {
	case avar.BoolVec:
		full := t.Value.AsBoolVec()
		out := make([]bool, len(t.ve))
		for i, p := range t.ve {
			out[i] = full[p]
		}
		t.Value = avar.NewBoolVec(out)
	case avar.IntVec:
		full := t.Value.AsIntVec()
		out := make([]int, len(t.ve))
		for i, p := range t.ve {
			out[i] = full[p]
		}
		t.Value = avar.NewIntVec(out)
	case avar.DblVec:
		full := t.Value.AsDblVec()
		out := make([]float64, len(t.ve))
		for i, p := range t.ve {
			out[i] = full[p]
		}
		t.Value = avar.NewDblVec(out)
	case avar.TxtVec:
		full := t.Value.AsTxtVec()
		out := make([]string, len(t.ve))
		for i, p := range t.ve {
			out[i] = full[p]
		}
		t.Value = avar.NewTxtVec(out)
	}
	t.ve = nil
	return t
}

// IsUndef reports whether t carries no value (UNDEF).
func (t Token) IsUndef() bool {
	return t.Kind == KindValue && !t.Value.HasValue()
}

func (t Token) String() string {
	switch t.Kind {
	case KindOperator:
		return t.Op.String()
	case KindFunction:
		return fmt.Sprintf("fn(%s)", t.Name)
	case KindVariable:
		return fmt.Sprintf("var(%s)", t.Name)
	case KindLParen:
		return "("
	case KindRParen:
		return ")"
	case KindSeparator:
		return ","
	default:
		return t.Value.String()
	}
}
