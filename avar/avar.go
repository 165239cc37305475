// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package avar implements the TypedValue tagged union that backs every
// piece of per-instance annotation metadata and every scalar or vector
// value the expression evaluator operates on.
package avar

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag identifies the variant held by a Value.
type Tag int

const (
	// Flag is a presence-only marker with no payload.
	Flag Tag = iota
	// Mask is a boolean that additionally participates in
	// masked-vector assignment semantics.
	Mask
	Bool
	Int
	Dbl
	Txt
	BoolVec
	IntVec
	DblVec
	TxtVec
	// Undef marks a value with no binding (missing symbol).
	Undef
)

func (t Tag) String() string {
	switch t {
	case Flag:
		return "flag"
	case Mask:
		return "mask"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Dbl:
		return "dbl"
	case Txt:
		return "txt"
	case BoolVec:
		return "bool[]"
	case IntVec:
		return "int[]"
	case DblVec:
		return "dbl[]"
	case TxtVec:
		return "txt[]"
	case Undef:
		return "undef"
	default:
		return "unknown"
	}
}

// IsVector reports whether t is one of the vector variants.
func (t Tag) IsVector() bool {
	switch t {
	case BoolVec, IntVec, DblVec, TxtVec:
		return true
	default:
		return false
	}
}

// Value is a tagged union over scalar and vector bool/int/float/string
// data, plus the zero-size Flag/Mask/Undef variants. The zero Value has
// the Flag tag with HasValue false.
type Value struct {
	tag      Tag
	hasValue bool

	b bool
	i int
	f float64
	s string

	bv []bool
	iv []int
	fv []float64
	sv []string
}

// Undefined returns the canonical UNDEF value.
func Undefined() Value { return Value{tag: Undef} }

// NewFlag returns a zero-size Flag value.
func NewFlag() Value { return Value{tag: Flag, hasValue: true} }

// NewMask returns a Mask value.
func NewMask(b bool) Value { return Value{tag: Mask, hasValue: true, b: b} }

// NewBool returns a scalar Bool value.
func NewBool(b bool) Value { return Value{tag: Bool, hasValue: true, b: b} }

// NewInt returns a scalar Int value.
func NewInt(i int) Value { return Value{tag: Int, hasValue: true, i: i} }

// NewDbl returns a scalar Dbl (float) value.
func NewDbl(f float64) Value { return Value{tag: Dbl, hasValue: true, f: f} }

// NewTxt returns a scalar Txt (string) value.
func NewTxt(s string) Value { return Value{tag: Txt, hasValue: true, s: s} }

// NewBoolVec returns a BoolVec value.
func NewBoolVec(v []bool) Value { return Value{tag: BoolVec, hasValue: true, bv: v} }

// NewIntVec returns an IntVec value.
func NewIntVec(v []int) Value { return Value{tag: IntVec, hasValue: true, iv: v} }

// NewDblVec returns a DblVec value.
func NewDblVec(v []float64) Value { return Value{tag: DblVec, hasValue: true, fv: v} }

// NewTxtVec returns a TxtVec value.
func NewTxtVec(v []string) Value { return Value{tag: TxtVec, hasValue: true, sv: v} }

// Tag returns the variant tag of v.
func (v Value) Tag() Tag { return v.tag }

// HasValue reports whether v carries an actual value (as opposed to
// UNDEF).
func (v Value) HasValue() bool { return v.hasValue && v.tag != Undef }

// IsVector reports whether v holds a vector variant.
func (v Value) IsVector() bool { return v.tag.IsVector() }

// IsScalar reports whether v holds a scalar (non-vector, non-flag)
// variant.
func (v Value) IsScalar() bool {
	switch v.tag {
	case Bool, Int, Dbl, Txt, Mask:
		return true
	default:
		return false
	}
}

// Size returns the number of elements for a vector value, 1 for a
// scalar/flag/mask value, and 0 for Undef.
func (v Value) Size() int {
	switch v.tag {
	case BoolVec:
		return len(v.bv)
	case IntVec:
		return len(v.iv)
	case DblVec:
		return len(v.fv)
	case TxtVec:
		return len(v.sv)
	case Undef:
		return 0
	default:
		return 1
	}
}

// ---- lossy scalar projections ----

// AsBool projects v to a bool. Numeric values are non-zero-truthy;
// strings are truthy unless empty, "0" or case-insensitively "false",
// "f", "no" or "n".
func (v Value) AsBool() bool {
	switch v.tag {
	case Bool, Mask:
		return v.b
	case Int:
		return v.i != 0
	case Dbl:
		return v.f != 0
	case Txt:
		return string2bool(v.s)
	case Flag:
		return true
	default:
		return false
	}
}

func string2bool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "f", "no", "n":
		return false
	default:
		return true
	}
}

// AsInt projects v to an int, truncating floats and parsing strings.
func (v Value) AsInt() int {
	switch v.tag {
	case Int:
		return v.i
	case Dbl:
		return int(v.f)
	case Bool, Mask:
		if v.b {
			return 1
		}
		return 0
	case Txt:
		n, _ := strconv.Atoi(strings.TrimSpace(v.s))
		return n
	default:
		return 0
	}
}

// AsDbl projects v to a float64.
func (v Value) AsDbl() float64 {
	switch v.tag {
	case Dbl:
		return v.f
	case Int:
		return float64(v.i)
	case Bool, Mask:
		if v.b {
			return 1
		}
		return 0
	case Txt:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return f
	default:
		return 0
	}
}

// AsTxt projects v to a string representation.
func (v Value) AsTxt() string {
	switch v.tag {
	case Txt:
		return v.s
	case Int:
		return strconv.Itoa(v.i)
	case Dbl:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Bool, Mask:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// ---- lossy vector projections ----

// AsBoolVec projects v to a []bool. Scalars are broadcast as a
// single-element slice; vectors are converted element-wise.
func (v Value) AsBoolVec() []bool {
	switch v.tag {
	case BoolVec:
		return append([]bool(nil), v.bv...)
	case IntVec:
		out := make([]bool, len(v.iv))
		for i, x := range v.iv {
			out[i] = x != 0
		}
		return out
	case DblVec:
		out := make([]bool, len(v.fv))
		for i, x := range v.fv {
			out[i] = x != 0
		}
		return out
	case TxtVec:
		out := make([]bool, len(v.sv))
		for i, x := range v.sv {
			out[i] = string2bool(x)
		}
		return out
	default:
		return []bool{v.AsBool()}
	}
}

// AsIntVec projects v to a []int.
func (v Value) AsIntVec() []int {
	switch v.tag {
	case IntVec:
		return append([]int(nil), v.iv...)
	case BoolVec:
		out := make([]int, len(v.bv))
		for i, x := range v.bv {
			if x {
				out[i] = 1
			}
		}
		return out
	case DblVec:
		out := make([]int, len(v.fv))
		for i, x := range v.fv {
			out[i] = int(x)
		}
		return out
	case TxtVec:
		out := make([]int, len(v.sv))
		for i, x := range v.sv {
			n, _ := strconv.Atoi(strings.TrimSpace(x))
			out[i] = n
		}
		return out
	default:
		return []int{v.AsInt()}
	}
}

// AsDblVec projects v to a []float64.
func (v Value) AsDblVec() []float64 {
	switch v.tag {
	case DblVec:
		return append([]float64(nil), v.fv...)
	case IntVec:
		out := make([]float64, len(v.iv))
		for i, x := range v.iv {
			out[i] = float64(x)
		}
		return out
	case BoolVec:
		out := make([]float64, len(v.bv))
		for i, x := range v.bv {
			if x {
				out[i] = 1
			}
		}
		return out
	case TxtVec:
		out := make([]float64, len(v.sv))
		for i, x := range v.sv {
			f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
			out[i] = f
		}
		return out
	default:
		return []float64{v.AsDbl()}
	}
}

// AsTxtVec projects v to a []string.
func (v Value) AsTxtVec() []string {
	switch v.tag {
	case TxtVec:
		return append([]string(nil), v.sv...)
	case IntVec:
		out := make([]string, len(v.iv))
		for i, x := range v.iv {
			out[i] = strconv.Itoa(x)
		}
		return out
	case DblVec:
		out := make([]string, len(v.fv))
		for i, x := range v.fv {
			out[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return out
	case BoolVec:
		out := make([]string, len(v.bv))
		for i, x := range v.bv {
			out[i] = strconv.FormatBool(x)
		}
		return out
	default:
		return []string{v.AsTxt()}
	}
}

// Element returns the ith (0-based) element of a vector value as a new
// scalar Value of the vector's element type, with no conversion.
func (v Value) Element(i int) (Value, bool) {
	switch v.tag {
	case BoolVec:
		if i < 0 || i >= len(v.bv) {
			return Value{}, false
		}
		return NewBool(v.bv[i]), true
	case IntVec:
		if i < 0 || i >= len(v.iv) {
			return Value{}, false
		}
		return NewInt(v.iv[i]), true
	case DblVec:
		if i < 0 || i >= len(v.fv) {
			return Value{}, false
		}
		return NewDbl(v.fv[i]), true
	case TxtVec:
		if i < 0 || i >= len(v.sv) {
			return Value{}, false
		}
		return NewTxt(v.sv[i]), true
	default:
		if i == 0 {
			return v, true
		}
		return Value{}, false
	}
}

func (v Value) String() string {
	switch v.tag {
	case Undef:
		return "."
	case Flag:
		return "<flag>"
	case Mask, Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.Itoa(v.i)
	case Dbl:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Txt:
		return v.s
	default:
		n := v.Size()
		l := n
		if l > 5 {
			l = 5
		}
		elems := make([]string, l)
		for i := 0; i < l; i++ {
			e, _ := v.Element(i)
			elems[i] = e.String()
		}
		suffix := ""
		if n > l {
			suffix = fmt.Sprintf("... (%d elements)", n)
		}
		return "[" + strings.Join(elems, ",") + "]" + suffix
	}
}
