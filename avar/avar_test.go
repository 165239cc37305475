// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avar

import (
	"reflect"
	"testing"
)

func TestScalarProjections(t *testing.T) {
	v := NewDbl(3.7)
	if v.AsInt() != 3 {
		t.Errorf("AsInt() = %d, want 3", v.AsInt())
	}
	if !v.AsBool() {
		t.Error("AsBool() = false, want true for non-zero float")
	}
	if v.AsTxt() != "3.7" {
		t.Errorf("AsTxt() = %q, want 3.7", v.AsTxt())
	}
}

func TestVectorProjection(t *testing.T) {
	v := NewIntVec([]int{1, 0, 2})
	bv := v.AsBoolVec()
	want := []bool{true, false, true}
	if !reflect.DeepEqual(bv, want) {
		t.Errorf("AsBoolVec() = %v, want %v", bv, want)
	}
}

func TestElement(t *testing.T) {
	v := NewDblVec([]float64{1, 2, 3})
	e, ok := v.Element(1)
	if !ok || e.AsDbl() != 2 {
		t.Errorf("Element(1) = %v,%v want 2,true", e, ok)
	}
	_, ok = v.Element(5)
	if ok {
		t.Error("Element(5) expected out of range")
	}
}

func TestUndefined(t *testing.T) {
	u := Undefined()
	if u.HasValue() {
		t.Error("Undefined().HasValue() = true, want false")
	}
	if u.Size() != 0 {
		t.Errorf("Undefined().Size() = %d, want 0", u.Size())
	}
}

func TestSize(t *testing.T) {
	if NewBool(true).Size() != 1 {
		t.Error("scalar size should be 1")
	}
	if NewIntVec([]int{1, 2, 3}).Size() != 3 {
		t.Error("vector size should be 3")
	}
}
