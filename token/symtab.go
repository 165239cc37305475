// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package token

import "github.com/kortschak/luna/avar"

// Instance is the minimal binding surface the evaluator needs: a
// name -> avar.Value map, matching instance_t in spec §3/§9. Both the
// "local" (per-record) and "global" (accumulator) bindings implement
// this interface.
type Instance interface {
	Get(name string) (avar.Value, bool)
	Set(name string, v avar.Value)
}

// MapInstance is a basic map-backed Instance implementation suitable
// for tests and for the per-epoch/per-instance bindings TRANS and the
// hypnogram analyzer construct on the fly.
type MapInstance struct {
	m map[string]avar.Value
}

// NewMapInstance returns an empty MapInstance.
func NewMapInstance() *MapInstance {
	return &MapInstance{m: make(map[string]avar.Value)}
}

// Get implements Instance.
func (mi *MapInstance) Get(name string) (avar.Value, bool) {
	v, ok := mi.m[name]
	return v, ok
}

// Set implements Instance.
func (mi *MapInstance) Set(name string, v avar.Value) {
	if mi.m == nil {
		mi.m = make(map[string]avar.Value)
	}
	mi.m[name] = v
}

// All returns a snapshot of the bound names. Used by callers exporting
// derived instance fields back to the annotation store.
func (mi *MapInstance) All() map[string]avar.Value {
	out := make(map[string]avar.Value, len(mi.m))
	for k, v := range mi.m {
		out[k] = v
	}
	return out
}
