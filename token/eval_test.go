// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package token

import (
	"testing"

	"github.com/kortschak/luna/avar"
)

func newLocalWith(vals map[string]avar.Value) *MapInstance {
	mi := NewMapInstance()
	for k, v := range vals {
		mi.Set(k, v)
	}
	return mi
}

func TestEvalSumOverComparison(t *testing.T) {
	local := newLocalWith(map[string]avar.Value{
		"X": avar.NewDblVec([]float64{1, 2, 3, 4, 5}),
	})
	e := NewEvaluator(local)
	got := e.Eval("sum(X > 2)")
	if !e.Valid() {
		t.Fatalf("evaluator invalid")
	}
	if got.AsDbl() != 3 {
		t.Errorf("sum(X > 2) = %v, want 3", got.AsDbl())
	}
}

func TestEvalMeanOverMaskedIndex(t *testing.T) {
	local := newLocalWith(map[string]avar.Value{
		"X": avar.NewDblVec([]float64{1, 2, 3, 4, 5}),
	})
	e := NewEvaluator(local)
	got := e.Eval("mean(X[X>2])")
	if !e.Valid() {
		t.Fatalf("evaluator invalid")
	}
	if got.AsDbl() != 4 {
		t.Errorf("mean(X[X>2]) = %v, want 4", got.AsDbl())
	}
}

func TestEvalVectorScalarBroadcast(t *testing.T) {
	local := newLocalWith(map[string]avar.Value{
		"X": avar.NewDblVec([]float64{1, 2, 3, 4, 5}),
	})
	e := NewEvaluator(local)
	got := e.Eval("X + 10")
	if !e.Valid() {
		t.Fatalf("evaluator invalid")
	}
	want := []float64{11, 12, 13, 14, 15}
	gv := got.AsDblVec()
	if len(gv) != len(want) {
		t.Fatalf("X + 10 = %v, want %v", gv, want)
	}
	for i := range want {
		if gv[i] != want[i] {
			t.Errorf("X + 10 = %v, want %v", gv, want)
			break
		}
	}
}

func TestEvalAssignmentIdempotence(t *testing.T) {
	local := newLocalWith(map[string]avar.Value{
		"X": avar.NewDblVec([]float64{1, 2, 3, 4, 5}),
	})
	e1 := NewEvaluator(local)
	direct := e1.Eval("X + 10")

	local2 := newLocalWith(map[string]avar.Value{
		"X": avar.NewDblVec([]float64{1, 2, 3, 4, 5}),
	})
	e2 := NewEvaluator(local2)
	e2.Eval("x = X + 10; x")
	if !e2.Valid() {
		t.Fatalf("evaluator invalid")
	}
	got, ok := local2.Get("x")
	if !ok {
		t.Fatalf("x not bound")
	}
	dv, gv := direct.AsDblVec(), got.AsDblVec()
	if len(dv) != len(gv) {
		t.Fatalf("assignment mismatch: %v vs %v", dv, gv)
	}
	for i := range dv {
		if dv[i] != gv[i] {
			t.Errorf("assignment mismatch at %d: %v vs %v", i, dv[i], gv[i])
		}
	}
}

func TestEvalIndexedAssignment(t *testing.T) {
	local := newLocalWith(map[string]avar.Value{
		"X": avar.NewDblVec([]float64{1, 2, 3, 4, 5}),
	})
	e := NewEvaluator(local)
	e.Eval("X[c(1,3)] = 99")
	if !e.Valid() {
		t.Fatalf("evaluator invalid")
	}
	v, _ := local.Get("X")
	got := v.AsDblVec()
	want := []float64{99, 2, 99, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("X = %v, want %v", got, want)
			break
		}
	}
}

func TestEvalUndefPropagation(t *testing.T) {
	e := NewEvaluator(NewMapInstance())
	got := e.Eval("missing + 1")
	if got.HasValue() {
		t.Errorf("missing + 1 = %v, want UNDEF", got)
	}
	if !e.Valid() {
		t.Errorf("evaluator should remain valid on UNDEF propagation")
	}
}

func TestEvalGlobalResolution(t *testing.T) {
	global := NewMapInstance()
	global.Set("_total", avar.NewInt(0))
	e := NewEvaluator(NewMapInstance()).WithGlobal(global, map[string]bool{"_total": true})
	e.Eval("_total = _total + 1")
	if !e.Valid() {
		t.Fatalf("evaluator invalid")
	}
	v, _ := global.Get("_total")
	if v.AsInt() != 1 {
		t.Errorf("_total = %v, want 1", v.AsInt())
	}
}

func TestEvalStringConcatAndCompare(t *testing.T) {
	e := NewEvaluator(NewMapInstance())
	got := e.Eval("'foo' + 'bar'")
	if got.AsTxt() != "foobar" {
		t.Errorf("'foo'+'bar' = %q, want foobar", got.AsTxt())
	}
	got2 := e.Eval("'abc' < 'abd'")
	if !got2.AsBool() {
		t.Errorf("'abc' < 'abd' should be true")
	}
}

func TestEvalIfFamily(t *testing.T) {
	e := NewEvaluator(NewMapInstance())
	got := e.Eval("ifelse(1 > 0, 'yes', 'no')")
	if got.AsTxt() != "yes" {
		t.Errorf("ifelse = %q, want yes", got.AsTxt())
	}
}

func TestEvalModRequiresInt(t *testing.T) {
	e := NewEvaluator(NewMapInstance())
	e.Eval("5.5 % 2")
	if e.Valid() {
		t.Errorf("5.5 %% 2 should invalidate evaluator")
	}
}
