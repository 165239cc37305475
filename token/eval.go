// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package token

import (
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kortschak/luna/avar"
)

// EvalError marks a hard evaluation failure (unknown function, arity
// mismatch, assignment shape mismatch). The evaluator is marked
// invalid on receipt (spec §7).
type EvalError struct{ Msg string }

func (e *EvalError) Error() string { return e.Msg }

// Evaluator binds a script's symbols to a local (per-record/per-epoch)
// Instance and, optionally, a global accumulator Instance. Symbols
// with a leading underscore resolve to the accumulator if their bare
// name (including the underscore) has been declared global; otherwise
// every symbol resolves to Local (spec §4.4, §9).
type Evaluator struct {
	Local  Instance
	Global Instance
	// GlobalNames is the set of "_"-prefixed names that resolve
	// against Global instead of Local.
	GlobalNames map[string]bool

	valid bool
}

// NewEvaluator returns an Evaluator bound to local only.
func NewEvaluator(local Instance) *Evaluator {
	return &Evaluator{Local: local, valid: true}
}

// WithGlobal attaches a global accumulator instance and its set of
// declared-global names.
func (e *Evaluator) WithGlobal(global Instance, names map[string]bool) *Evaluator {
	e.Global = global
	e.GlobalNames = names
	return e
}

// Valid reports whether the evaluator has not yet encountered a hard
// failure.
func (e *Evaluator) Valid() bool { return e.valid }

func (e *Evaluator) invalidate() { e.valid = false }

func (e *Evaluator) instanceFor(name string) Instance {
	if strings.HasPrefix(name, "_") && e.GlobalNames[name] && e.Global != nil {
		return e.Global
	}
	return e.Local
}

func (e *Evaluator) resolve(name string) avar.Value {
	inst := e.instanceFor(name)
	if inst == nil {
		return avar.Undefined()
	}
	v, ok := inst.Get(name)
	if !ok {
		return avar.Undefined()
	}
	return v
}

// Eval runs an entire script (";"-separated statements) and returns
// the value of the last statement, per spec §4.4 "the last statement's
// value is the expression result". Statements after a hard failure are
// skipped; e.Valid() reports false in that case.
func (e *Evaluator) Eval(script string) avar.Value {
	stmts := SplitStatements(script)
	result := avar.Undefined()
	for _, s := range stmts {
		if !e.valid {
			break
		}
		result = e.evalStatement(s)
	}
	return result
}

// splitAssignment finds a top-level, non-comparison '=' splitting a statement
// into an LHS target and an RHS expression. We scan by hand rather
// than with regexp because brackets/parens/strings must be respected.
func splitAssignment(stmt string) (lhs, rhs string, isAssign bool) {
	depthParen, depthBrack, depthBrace := 0, 0, 0
	inStr := false
	r := []rune(stmt)
	for i := 0; i < len(r); i++ {
		c := r[i]
		switch {
		case c == '\'' && depthBrace == 0:
			inStr = !inStr
		case inStr:
		case c == '{':
			depthBrace++
		case c == '}':
			depthBrace--
		case c == '(':
			depthParen++
		case c == ')':
			depthParen--
		case c == '[':
			depthBrack++
		case c == ']':
			depthBrack--
		case c == '=' && depthParen == 0 && depthBrack == 0 && depthBrace == 0:
			prev := byte(0)
			if i > 0 {
				prev = byte(r[i-1])
			}
			next := byte(0)
			if i+1 < len(r) {
				next = byte(r[i+1])
			}
			if next == '=' || prev == '=' || prev == '!' || prev == '<' || prev == '>' || next == '~' {
				continue
			}
			return strings.TrimSpace(string(r[:i])), strings.TrimSpace(string(r[i+1:])), true
		}
	}
	return "", "", false
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
var indexedRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\[(.*)\]$`)

func (e *Evaluator) evalStatement(stmt string) avar.Value {
	lhs, rhs, isAssign := splitAssignment(stmt)
	if !isAssign {
		v, err := e.evalExpr(stmt)
		if err != nil {
			e.invalidate()
			return avar.Undefined()
		}
		return v
	}

	if m := indexedRe.FindStringSubmatch(lhs); m != nil {
		return e.evalIndexedAssign(m[1], m[2], rhs)
	}

	if !identRe.MatchString(lhs) || strings.Contains(lhs, ".") {
		e.invalidate()
		return avar.Undefined()
	}

	rv, err := e.evalExpr(rhs)
	if err != nil {
		e.invalidate()
		return avar.Undefined()
	}

	inst := e.instanceFor(lhs)
	if inst == nil {
		e.invalidate()
		return avar.Undefined()
	}
	cur, _ := inst.Get(lhs)

	switch {
	case !cur.HasValue() || cur.IsScalar():
		inst.Set(lhs, rv)
	case cur.IsVector() && rv.IsVector():
		if cur.Size() != rv.Size() {
			e.invalidate()
			return avar.Undefined()
		}
		inst.Set(lhs, rv)
	case cur.IsVector() && !rv.IsVector():
		inst.Set(lhs, broadcastToTag(rv, cur.Tag(), cur.Size()))
	default:
		inst.Set(lhs, rv)
	}
	return avar.NewBool(true)
}

// evalIndexedAssign implements "masked vec <- vector" / "vec <- scalar"
// assignment through x[idx] = rhs (spec §3, §4.4's assignment contract
// table).
func (e *Evaluator) evalIndexedAssign(name, idxExpr, rhsExpr string) avar.Value {
	inst := e.instanceFor(name)
	if inst == nil {
		e.invalidate()
		return avar.Undefined()
	}
	cur, ok := inst.Get(name)
	if !ok || !cur.HasValue() {
		e.invalidate()
		return avar.Undefined()
	}
	idxVal, err := e.evalExpr(idxExpr)
	if err != nil {
		e.invalidate()
		return avar.Undefined()
	}
	rv, err := e.evalExpr(rhsExpr)
	if err != nil {
		e.invalidate()
		return avar.Undefined()
	}
	ve := indexPositions(idxVal, cur.Size())

	switch cur.Tag() {
	case avar.DblVec:
		full := cur.AsDblVec()
		var vals []float64
		if rv.IsVector() {
			vals = rv.AsDblVec()
			if len(vals) != len(ve) {
				e.invalidate()
				return avar.Undefined()
			}
		} else {
			vals = make([]float64, len(ve))
			for i := range vals {
				vals[i] = rv.AsDbl()
			}
		}
		for i, p := range ve {
			if p >= 0 && p < len(full) {
				full[p] = vals[i]
			}
		}
		inst.Set(name, avar.NewDblVec(full))
	case avar.IntVec:
		full := cur.AsIntVec()
		var vals []int
		if rv.IsVector() {
			vals = rv.AsIntVec()
			if len(vals) != len(ve) {
				e.invalidate()
				return avar.Undefined()
			}
		} else {
			vals = make([]int, len(ve))
			for i := range vals {
				vals[i] = rv.AsInt()
			}
		}
		for i, p := range ve {
			if p >= 0 && p < len(full) {
				full[p] = vals[i]
			}
		}
		inst.Set(name, avar.NewIntVec(full))
	case avar.BoolVec:
		full := cur.AsBoolVec()
		var vals []bool
		if rv.IsVector() {
			vals = rv.AsBoolVec()
			if len(vals) != len(ve) {
				e.invalidate()
				return avar.Undefined()
			}
		} else {
			vals = make([]bool, len(ve))
			for i := range vals {
				vals[i] = rv.AsBool()
			}
		}
		for i, p := range ve {
			if p >= 0 && p < len(full) {
				full[p] = vals[i]
			}
		}
		inst.Set(name, avar.NewBoolVec(full))
	case avar.TxtVec:
		full := cur.AsTxtVec()
		var vals []string
		if rv.IsVector() {
			vals = rv.AsTxtVec()
			if len(vals) != len(ve) {
				e.invalidate()
				return avar.Undefined()
			}
		} else {
			vals = make([]string, len(ve))
			for i := range vals {
				vals[i] = rv.AsTxt()
			}
		}
		for i, p := range ve {
			if p >= 0 && p < len(full) {
				full[p] = vals[i]
			}
		}
		inst.Set(name, avar.NewTxtVec(full))
	default:
		e.invalidate()
		return avar.Undefined()
	}
	return avar.NewBool(true)
}

func broadcastToTag(v avar.Value, tag avar.Tag, n int) avar.Value {
	switch tag {
	case avar.DblVec:
		out := make([]float64, n)
		x := v.AsDbl()
		for i := range out {
			out[i] = x
		}
		return avar.NewDblVec(out)
	case avar.IntVec:
		out := make([]int, n)
		x := v.AsInt()
		for i := range out {
			out[i] = x
		}
		return avar.NewIntVec(out)
	case avar.BoolVec:
		out := make([]bool, n)
		x := v.AsBool()
		for i := range out {
			out[i] = x
		}
		return avar.NewBoolVec(out)
	case avar.TxtVec:
		out := make([]string, n)
		x := v.AsTxt()
		for i := range out {
			out[i] = x
		}
		return avar.NewTxtVec(out)
	default:
		return v
	}
}

// evalExpr parses and evaluates a single non-assignment expression,
// returning a hard error on parse or evaluation failure.
func (e *Evaluator) evalExpr(expr string) (avar.Value, error) {
	rpn, err := Parse(expr)
	if err != nil {
		return avar.Value{}, err
	}
	return e.runRPN(rpn)
}

// runRPN executes an RPN token stream against an operand stack.
// Variable tokens are pushed unresolved so that, in principle, an
// assignment operator could recover the bare name; top-level
// assignment is handled separately by evalStatement/evalIndexedAssign,
// so within an expression a bare variable is always resolved to its
// bound value (or UNDEF) before use.
func (e *Evaluator) runRPN(rpn []Token) (avar.Value, error) {
	var stack []Token
	pop := func() Token {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.Kind == KindVariable {
			return NewValue(e.resolve(t.Name))
		}
		return t.Prune()
	}
	for _, t := range rpn {
		switch t.Kind {
		case KindValue, KindVariable:
			stack = append(stack, t)
		case KindOperator:
			if t.Unary {
				a := pop()
				stack = append(stack, NewValue(applyUnary(t.Op, a.Value)))
				continue
			}
			if len(stack) < 2 {
				return avar.Value{}, &EvalError{Msg: "operator missing operand"}
			}
			b := pop()
			a := pop()
			v, err := applyBinary(t.Op, a.Value, b.Value)
			if err != nil {
				return avar.Value{}, err
			}
			stack = append(stack, NewValue(v))
		case KindFunction:
			args := make([]avar.Value, t.Arity)
			for i := t.Arity - 1; i >= 0; i-- {
				if len(stack) == 0 {
					return avar.Value{}, &EvalError{Msg: "function " + t.Name + ": missing argument"}
				}
				args[i] = pop().Value
			}
			v, err := callFunction(t.Name, args)
			if err != nil {
				return avar.Value{}, err
			}
			stack = append(stack, NewValue(v))
		}
	}
	if len(stack) != 1 {
		return avar.Value{}, &EvalError{Msg: "malformed expression"}
	}
	return pop().Value, nil
}

func applyUnary(op Op, a avar.Value) avar.Value {
	if !a.HasValue() {
		return avar.Undefined()
	}
	switch op {
	case OpSub:
		if a.IsVector() {
			v := a.AsDblVec()
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = -x
			}
			return avar.NewDblVec(out)
		}
		if a.Tag() == avar.Int {
			return avar.NewInt(-a.AsInt())
		}
		return avar.NewDbl(-a.AsDbl())
	case OpNot:
		if a.IsVector() {
			v := a.AsBoolVec()
			out := make([]bool, len(v))
			for i, x := range v {
				out[i] = !x
			}
			return avar.NewBoolVec(out)
		}
		return avar.NewBool(!a.AsBool())
	default:
		return avar.Undefined()
	}
}

// applyBinary implements the full scalar/vector promotion and
// broadcasting rules of spec §4.4.
func applyBinary(op Op, a, b avar.Value) (avar.Value, error) {
	if op == OpAnd || op == OpOr {
		return applyLogical(op, a, b), nil
	}
	if !a.HasValue() || !b.HasValue() {
		return avar.Undefined(), nil
	}
	if op == OpMatch {
		return avar.NewBool(matchAny(a, b)), nil
	}
	aVec, bVec := a.IsVector(), b.IsVector()
	switch {
	case aVec && bVec:
		return vectorBinary(op, a, b)
	case aVec && !bVec:
		return vectorScalarBinary(op, a, b, false)
	case !aVec && bVec:
		return vectorScalarBinary(op, b, a, true)
	default:
		return scalarBinary(op, a, b)
	}
}

func applyLogical(op Op, a, b avar.Value) avar.Value {
	if !a.HasValue() || !b.HasValue() {
		return avar.Undefined()
	}
	if a.IsVector() || b.IsVector() {
		n := a.Size()
		if b.Size() > n {
			n = b.Size()
		}
		av := broadcastBoolVec(a, n)
		bv := broadcastBoolVec(b, n)
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			if op == OpAnd {
				out[i] = av[i] && bv[i]
			} else {
				out[i] = av[i] || bv[i]
			}
		}
		return avar.NewBoolVec(out)
	}
	if op == OpAnd {
		return avar.NewBool(a.AsBool() && b.AsBool())
	}
	return avar.NewBool(a.AsBool() || b.AsBool())
}

func broadcastBoolVec(v avar.Value, n int) []bool {
	if v.IsVector() {
		return v.AsBoolVec()
	}
	out := make([]bool, n)
	x := v.AsBool()
	for i := range out {
		out[i] = x
	}
	return out
}

func matchAny(a, b avar.Value) bool {
	eq, err := applyBinary(OpEq, a, b)
	if err != nil || !eq.HasValue() {
		return false
	}
	if eq.IsVector() {
		for _, x := range eq.AsBoolVec() {
			if x {
				return true
			}
		}
		return false
	}
	return eq.AsBool()
}

func isStringish(v avar.Value) bool {
	return v.Tag() == avar.Txt || v.Tag() == avar.TxtVec
}

func scalarBinary(op Op, a, b avar.Value) (avar.Value, error) {
	if isStringish(a) || isStringish(b) {
		switch op {
		case OpAdd:
			return avar.NewTxt(a.AsTxt() + b.AsTxt()), nil
		case OpEq:
			return avar.NewBool(a.AsTxt() == b.AsTxt()), nil
		case OpNeq:
			return avar.NewBool(a.AsTxt() != b.AsTxt()), nil
		case OpLt:
			return avar.NewBool(a.AsTxt() < b.AsTxt()), nil
		case OpLe:
			return avar.NewBool(a.AsTxt() <= b.AsTxt()), nil
		case OpGt:
			return avar.NewBool(a.AsTxt() > b.AsTxt()), nil
		case OpGe:
			return avar.NewBool(a.AsTxt() >= b.AsTxt()), nil
		default:
			return avar.Value{}, &EvalError{Msg: "strings only combine with strings"}
		}
	}

	switch op {
	case OpDiv:
		return avar.NewDbl(a.AsDbl() / b.AsDbl()), nil
	case OpMod:
		if a.Tag() != avar.Int && a.Tag() != avar.Bool || b.Tag() != avar.Int && b.Tag() != avar.Bool {
			return avar.Value{}, &EvalError{Msg: "%% requires int operands"}
		}
		bi := b.AsInt()
		if bi == 0 {
			return avar.Undefined(), nil
		}
		return avar.NewInt(a.AsInt() % bi), nil
	case OpEq:
		return avar.NewBool(scalarEq(a, b)), nil
	case OpNeq:
		return avar.NewBool(!scalarEq(a, b)), nil
	case OpLt:
		return avar.NewBool(a.AsDbl() < b.AsDbl()), nil
	case OpLe:
		return avar.NewBool(a.AsDbl() <= b.AsDbl()), nil
	case OpGt:
		return avar.NewBool(a.AsDbl() > b.AsDbl()), nil
	case OpGe:
		return avar.NewBool(a.AsDbl() >= b.AsDbl()), nil
	}

	// promotion lattice: bool ⊂ int ⊂ float
	isFloat := a.Tag() == avar.Dbl || b.Tag() == avar.Dbl
	isInt := a.Tag() == avar.Int || b.Tag() == avar.Int
	switch op {
	case OpAdd:
		if isFloat {
			return avar.NewDbl(a.AsDbl() + b.AsDbl()), nil
		}
		if isInt {
			return avar.NewInt(a.AsInt() + b.AsInt()), nil
		}
		return avar.NewBool(a.AsBool() || b.AsBool()), nil
	case OpSub:
		if isFloat {
			return avar.NewDbl(a.AsDbl() - b.AsDbl()), nil
		}
		return avar.NewInt(a.AsInt() - b.AsInt()), nil
	case OpMul:
		if isFloat {
			return avar.NewDbl(a.AsDbl() * b.AsDbl()), nil
		}
		if isInt {
			return avar.NewInt(a.AsInt() * b.AsInt()), nil
		}
		return avar.NewBool(a.AsBool() && b.AsBool()), nil
	}
	return avar.Value{}, &EvalError{Msg: "unsupported scalar operator " + op.String()}
}

func scalarEq(a, b avar.Value) bool {
	if isStringish(a) || isStringish(b) {
		return a.AsTxt() == b.AsTxt()
	}
	return a.AsDbl() == b.AsDbl()
}

// vectorBinary implements element-wise vector⊕vector; equal size is
// required except for == and != which return UNDEF on mismatch per spec
// §4.4/§9 Open Question (b).
func vectorBinary(op Op, a, b avar.Value) (avar.Value, error) {
	if a.Size() != b.Size() {
		if op == OpEq || op == OpNeq {
			return avar.Undefined(), nil
		}
		return avar.Value{}, &EvalError{Msg: "vector size mismatch"}
	}
	n := a.Size()
	if isStringish(a) || isStringish(b) {
		av, bv := a.AsTxtVec(), b.AsTxtVec()
		switch op {
		case OpAdd:
			out := make([]string, n)
			for i := range out {
				out[i] = av[i] + bv[i]
			}
			return avar.NewTxtVec(out), nil
		case OpEq:
			return avar.NewBoolVec(boolZip(av, bv, func(x, y string) bool { return x == y })), nil
		case OpNeq:
			return avar.NewBoolVec(boolZip(av, bv, func(x, y string) bool { return x != y })), nil
		}
		return avar.Value{}, &EvalError{Msg: "unsupported vector string operator"}
	}

	af, bf := a.AsDblVec(), b.AsDblVec()
	switch op {
	case OpAdd:
		return avar.NewDblVec(zipF(af, bf, func(x, y float64) float64 { return x + y })), nil
	case OpSub:
		return avar.NewDblVec(zipF(af, bf, func(x, y float64) float64 { return x - y })), nil
	case OpMul:
		return avar.NewDblVec(zipF(af, bf, func(x, y float64) float64 { return x * y })), nil
	case OpDiv:
		return avar.NewDblVec(zipF(af, bf, func(x, y float64) float64 { return x / y })), nil
	case OpMod:
		ai, bi := a.AsIntVec(), b.AsIntVec()
		out := make([]int, n)
		for i := range out {
			if bi[i] == 0 {
				continue
			}
			out[i] = ai[i] % bi[i]
		}
		return avar.NewIntVec(out), nil
	case OpEq:
		return avar.NewBoolVec(boolZipF(af, bf, func(x, y float64) bool { return x == y })), nil
	case OpNeq:
		return avar.NewBoolVec(boolZipF(af, bf, func(x, y float64) bool { return x != y })), nil
	case OpLt:
		return avar.NewBoolVec(boolZipF(af, bf, func(x, y float64) bool { return x < y })), nil
	case OpLe:
		return avar.NewBoolVec(boolZipF(af, bf, func(x, y float64) bool { return x <= y })), nil
	case OpGt:
		return avar.NewBoolVec(boolZipF(af, bf, func(x, y float64) bool { return x > y })), nil
	case OpGe:
		return avar.NewBoolVec(boolZipF(af, bf, func(x, y float64) bool { return x >= y })), nil
	}
	return avar.Value{}, &EvalError{Msg: "unsupported vector operator " + op.String()}
}

// vectorScalarBinary broadcasts the scalar operand. swapped indicates
// the scalar was the left operand in the original expression (used
// only for non-commutative ops like - and /).
func vectorScalarBinary(op Op, vec, scalar avar.Value, swapped bool) (avar.Value, error) {
	n := vec.Size()
	if isStringish(vec) || isStringish(scalar) {
		vv := vec.AsTxtVec()
		sv := scalar.AsTxt()
		out := make([]string, n)
		switch op {
		case OpAdd:
			for i := range out {
				if swapped {
					out[i] = sv + vv[i]
				} else {
					out[i] = vv[i] + sv
				}
			}
			return avar.NewTxtVec(out), nil
		case OpEq:
			bout := make([]bool, n)
			for i := range bout {
				bout[i] = vv[i] == sv
			}
			return avar.NewBoolVec(bout), nil
		case OpNeq:
			bout := make([]bool, n)
			for i := range bout {
				bout[i] = vv[i] != sv
			}
			return avar.NewBoolVec(bout), nil
		}
		return avar.Value{}, &EvalError{Msg: "unsupported vector/string operator"}
	}

	vv := vec.AsDblVec()
	s := scalar.AsDbl()
	apply := func(x, y float64) float64 {
		switch op {
		case OpAdd:
			return x + y
		case OpSub:
			return x - y
		case OpMul:
			return x * y
		case OpDiv:
			return x / y
		}
		return math.NaN()
	}
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		out := make([]float64, n)
		for i, x := range vv {
			if swapped {
				out[i] = apply(s, x)
			} else {
				out[i] = apply(x, s)
			}
		}
		return avar.NewDblVec(out), nil
	case OpMod:
		vi := vec.AsIntVec()
		si := scalar.AsInt()
		out := make([]int, n)
		for i, x := range vi {
			if si == 0 {
				continue
			}
			if swapped {
				out[i] = si % x
			} else {
				out[i] = x % si
			}
		}
		return avar.NewIntVec(out), nil
	case OpEq, OpNeq, OpLt, OpLe, OpGt, OpGe:
		out := make([]bool, n)
		for i, x := range vv {
			l, r := x, s
			if swapped {
				l, r = s, x
			}
			out[i] = compareF(op, l, r)
		}
		return avar.NewBoolVec(out), nil
	}
	return avar.Value{}, &EvalError{Msg: "unsupported vector/scalar operator " + op.String()}
}

func compareF(op Op, l, r float64) bool {
	switch op {
	case OpEq:
		return l == r
	case OpNeq:
		return l != r
	case OpLt:
		return l < r
	case OpLe:
		return l <= r
	case OpGt:
		return l > r
	case OpGe:
		return l >= r
	}
	return false
}

func zipF(a, b []float64, f func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

func boolZipF(a, b []float64, f func(x, y float64) bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

func boolZip(a, b []string, f func(x, y string) bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

// callFunction dispatches a fixed or variadic-rewritten function call.
func callFunction(name string, args []avar.Value) (avar.Value, error) {
	switch name {
	case "sqrt":
		return unaryMath(args, math.Sqrt)
	case "sqr":
		return unaryMath(args, func(x float64) float64 { return x * x })
	case "log":
		return unaryMath(args, math.Log)
	case "log10":
		return unaryMath(args, math.Log10)
	case "exp":
		return unaryMath(args, math.Exp)
	case "abs":
		return unaryMath(args, math.Abs)
	case "floor":
		return unaryMath(args, math.Floor)
	case "round":
		return unaryMath(args, math.Round)
	case "pow":
		if len(args) != 2 {
			return avar.Value{}, arityErr(name, 2, len(args))
		}
		return avar.NewDbl(math.Pow(args[0].AsDbl(), args[1].AsDbl())), nil
	case "rnd":
		switch len(args) {
		case 0:
			return avar.NewDbl(rand.Float64()), nil
		case 1:
			return avar.NewInt(rand.Intn(args[0].AsInt())), nil
		default:
			return avar.Value{}, arityErr(name, 1, len(args))
		}
	case "if", "ifnot":
		if len(args) != 2 {
			return avar.Value{}, arityErr(name, 2, len(args))
		}
		cond := args[0].AsBool()
		if name == "ifnot" {
			cond = !cond
		}
		if cond {
			return args[1], nil
		}
		return avar.Undefined(), nil
	case "ifelse":
		if len(args) != 3 {
			return avar.Value{}, arityErr(name, 3, len(args))
		}
		if args[0].AsBool() {
			return args[1], nil
		}
		return args[2], nil
	case "length", "size":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		return avar.NewInt(args[0].Size()), nil
	case "min":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		v := args[0].AsDblVec()
		if len(v) == 0 {
			return avar.Undefined(), nil
		}
		return avar.NewDbl(floats.Min(v)), nil
	case "max":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		v := args[0].AsDblVec()
		if len(v) == 0 {
			return avar.Undefined(), nil
		}
		return avar.NewDbl(floats.Max(v)), nil
	case "sum":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		v := args[0].AsDblVec()
		if len(v) == 0 {
			return avar.Undefined(), nil
		}
		return avar.NewDbl(floats.Sum(v)), nil
	case "mean":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		v := args[0].AsDblVec()
		if len(v) == 0 {
			return avar.Undefined(), nil
		}
		return avar.NewDbl(stat.Mean(v, nil)), nil
	case "sd":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		v := args[0].AsDblVec()
		if len(v) < 2 {
			return avar.Undefined(), nil
		}
		return avar.NewDbl(stat.StdDev(v, nil)), nil
	case "sort":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		v := append([]float64(nil), args[0].AsDblVec()...)
		sort.Float64s(v)
		if args[0].Tag() == avar.IntVec {
			out := make([]int, len(v))
			for i, x := range v {
				out[i] = int(x)
			}
			return avar.NewIntVec(out), nil
		}
		return avar.NewDblVec(v), nil
	case "element":
		if len(args) != 2 {
			return avar.Value{}, arityErr(name, 2, len(args))
		}
		pos := indexPositions(args[1], args[0].Size())
		if args[1].Tag() != avar.BoolVec && len(pos) == 1 {
			el, ok := args[0].Element(pos[0])
			if !ok {
				return avar.Value{}, &EvalError{Msg: "index out of range for vector"}
			}
			return el, nil
		}
		return extractVector(args[0], pos)
	case "any":
		if len(args) == 1 {
			for _, b := range args[0].AsBoolVec() {
				if b {
					return avar.NewBool(true), nil
				}
			}
			return avar.NewBool(false), nil
		} else if len(args) == 2 {
			return avar.NewBool(containsVal(args[0], args[1])), nil
		}
		return avar.Value{}, arityErr(name, 1, len(args))
	case "all":
		if len(args) != 1 {
			return avar.Value{}, arityErr(name, 1, len(args))
		}
		for _, b := range args[0].AsBoolVec() {
			if !b {
				return avar.NewBool(false), nil
			}
		}
		return avar.NewBool(true), nil
	case "contains":
		if len(args) != 2 {
			return avar.Value{}, arityErr(name, 2, len(args))
		}
		return avar.NewBool(containsVal(args[0], args[1])), nil
	case "countif":
		if len(args) != 2 {
			return avar.Value{}, arityErr(name, 2, len(args))
		}
		return avar.NewInt(countIf(args[0], args[1])), nil
	case "num_func":
		return avar.NewDblVec(lastAsDblSlice(args)), nil
	case "int_func":
		return avar.NewIntVec(lastAsIntSlice(args)), nil
	case "txt_func":
		return avar.NewTxtVec(lastAsTxtSlice(args)), nil
	case "bool_func":
		return avar.NewBoolVec(lastAsBoolSlice(args)), nil
	case "c_func":
		return concatVariadic(args), nil
	}
	return avar.Value{}, &EvalError{Msg: "unknown function " + name}
}

func arityErr(name string, want, got int) error {
	return &EvalError{Msg: name + ": arity mismatch"}
}

func unaryMath(args []avar.Value, f func(float64) float64) (avar.Value, error) {
	if len(args) != 1 {
		return avar.Value{}, arityErr("", 1, len(args))
	}
	a := args[0]
	if a.IsVector() {
		v := a.AsDblVec()
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = f(x)
		}
		return avar.NewDblVec(out), nil
	}
	return avar.NewDbl(f(a.AsDbl())), nil
}

// indexPositions resolves an index operand to 0-based positions into a
// vector of length baseLen. A BoolVec mask selects the positions where
// it is true (spec §8 scenario 2, x[x>2]); any other vector is treated
// as 1-based integer positions.
func indexPositions(idx avar.Value, baseLen int) []int {
	if idx.Tag() == avar.BoolVec {
		mask := idx.AsBoolVec()
		out := make([]int, 0, len(mask))
		for i, b := range mask {
			if !b {
				continue
			}
			out = append(out, i)
		}
		return out
	}
	raw := idx.AsIntVec()
	out := make([]int, len(raw))
	for i, n := range raw {
		out[i] = n - 1
	}
	return out
}

// extractVector selects the 0-based positions pos out of v.
func extractVector(v avar.Value, pos []int) (avar.Value, error) {
	switch v.Tag() {
	case avar.DblVec:
		full := v.AsDblVec()
		out := make([]float64, 0, len(pos))
		for _, p := range pos {
			if p < 0 || p >= len(full) {
				return avar.Value{}, &EvalError{Msg: "index out of range for vector"}
			}
			out = append(out, full[p])
		}
		return avar.NewDblVec(out), nil
	case avar.IntVec:
		full := v.AsIntVec()
		out := make([]int, 0, len(pos))
		for _, p := range pos {
			if p < 0 || p >= len(full) {
				return avar.Value{}, &EvalError{Msg: "index out of range for vector"}
			}
			out = append(out, full[p])
		}
		return avar.NewIntVec(out), nil
	case avar.BoolVec:
		full := v.AsBoolVec()
		out := make([]bool, 0, len(pos))
		for _, p := range pos {
			if p < 0 || p >= len(full) {
				return avar.Value{}, &EvalError{Msg: "index out of range for vector"}
			}
			out = append(out, full[p])
		}
		return avar.NewBoolVec(out), nil
	case avar.TxtVec:
		full := v.AsTxtVec()
		out := make([]string, 0, len(pos))
		for _, p := range pos {
			if p < 0 || p >= len(full) {
				return avar.Value{}, &EvalError{Msg: "index out of range for vector"}
			}
			out = append(out, full[p])
		}
		return avar.NewTxtVec(out), nil
	default:
		return avar.Value{}, &EvalError{Msg: "element: not a vector"}
	}
}

func containsVal(hay, needle avar.Value) bool {
	if isStringish(hay) {
		return strings.Contains(hay.AsTxt(), needle.AsTxt())
	}
	for _, x := range hay.AsDblVec() {
		if x == needle.AsDbl() {
			return true
		}
	}
	return false
}

func countIf(hay, needle avar.Value) int {
	n := 0
	for _, x := range hay.AsDblVec() {
		if x == needle.AsDbl() {
			n++
		}
	}
	return n
}

// lastAsDblSlice treats args[:-1] as the elements and args[last] as
// the arity marker that the preprocessor appended; the arity is
// redundant with len(args)-1 but is kept for fidelity to the
// preprocessing rewrite described in spec §4.4.
func lastAsDblSlice(args []avar.Value) []float64 {
	if len(args) == 0 {
		return nil
	}
	elems := args[:len(args)-1]
	out := make([]float64, len(elems))
	for i, a := range elems {
		out[i] = a.AsDbl()
	}
	return out
}

func lastAsIntSlice(args []avar.Value) []int {
	if len(args) == 0 {
		return nil
	}
	elems := args[:len(args)-1]
	out := make([]int, len(elems))
	for i, a := range elems {
		out[i] = a.AsInt()
	}
	return out
}

func lastAsTxtSlice(args []avar.Value) []string {
	if len(args) == 0 {
		return nil
	}
	elems := args[:len(args)-1]
	out := make([]string, len(elems))
	for i, a := range elems {
		out[i] = a.AsTxt()
	}
	return out
}

func lastAsBoolSlice(args []avar.Value) []bool {
	if len(args) == 0 {
		return nil
	}
	elems := args[:len(args)-1]
	out := make([]bool, len(elems))
	for i, a := range elems {
		out[i] = a.AsBool()
	}
	return out
}

// concatVariadic implements c(...), which concatenates scalars and
// vectors into a single vector, taking the widest type present
// (string > float > int > bool).
func concatVariadic(args []avar.Value) avar.Value {
	if len(args) == 0 {
		return avar.NewDblVec(nil)
	}
	elems := args[:len(args)-1]
	widest := avar.Bool
	for _, a := range elems {
		t := a.Tag()
		if t == avar.BoolVec {
			t = avar.Bool
		} else if t == avar.IntVec {
			t = avar.Int
		} else if t == avar.DblVec {
			t = avar.Dbl
		} else if t == avar.TxtVec {
			t = avar.Txt
		}
		switch {
		case t == avar.Txt:
			widest = avar.Txt
		case t == avar.Dbl && widest != avar.Txt:
			widest = avar.Dbl
		case t == avar.Int && widest != avar.Txt && widest != avar.Dbl:
			widest = avar.Int
		}
	}
	switch widest {
	case avar.Txt:
		var out []string
		for _, a := range elems {
			out = append(out, a.AsTxtVec()...)
		}
		return avar.NewTxtVec(out)
	case avar.Dbl:
		var out []float64
		for _, a := range elems {
			out = append(out, a.AsDblVec()...)
		}
		return avar.NewDblVec(out)
	case avar.Int:
		var out []int
		for _, a := range elems {
			out = append(out, a.AsIntVec()...)
		}
		return avar.NewIntVec(out)
	default:
		var out []bool
		for _, a := range elems {
			out = append(out, a.AsBoolVec()...)
		}
		return avar.NewBoolVec(out)
	}
}
