// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package annot implements the annotation store: named annotation
// classes, their timestamped instances, and an interval-tree index for
// windowed lookup.
package annot

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
	"github.com/biogo/store/llrb"

	"github.com/kortschak/luna/avar"
	"github.com/kortschak/luna/tick"
)

// InstanceIndex identifies a single instance of an annotation: its
// owning Annotation, its interval, an identifier (not necessarily
// unique), and an optional channel label.
type InstanceIndex struct {
	Annot    string
	Interval tick.Interval
	ID       string
	Channel  string
}

// Less orders InstanceIndex values by (Interval.Start, Interval.Stop,
// ID, Channel), matching instance_idx_t::operator< in the original.
func (a InstanceIndex) Less(than llrb.Comparable) bool {
	b := than.(InstanceIndex)
	if a.Interval.Start != b.Interval.Start {
		return a.Interval.Start < b.Interval.Start
	}
	if a.Interval.Stop != b.Interval.Stop {
		return a.Interval.Stop < b.Interval.Stop
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Channel < b.Channel
}

// Instance is a single annotation event: zero or more named
// avar.Value fields attached to an InstanceIndex.
type Instance struct {
	Index InstanceIndex
	Data  map[string]avar.Value
}

// NewInstance returns an empty Instance for idx.
func NewInstance(idx InstanceIndex) *Instance {
	return &Instance{Index: idx, Data: make(map[string]avar.Value)}
}

// Get returns the named field, or UNDEF if absent.
func (in *Instance) Get(name string) avar.Value {
	if v, ok := in.Data[name]; ok {
		return v
	}
	return avar.Undefined()
}

// Set binds a named field on the instance.
func (in *Instance) Set(name string, v avar.Value) { in.Data[name] = v }

// treeEntry adapts an *Instance to interval.IntInterface so instances
// can be indexed by their Interval. uid is assigned at insertion order
// and used only to satisfy ID(); it carries no domain meaning.
type treeEntry struct {
	uid uintptr
	*Instance
}

// Overlap is called by IntTree.Get as query.Overlap(stored), so e is the
// query window and b is the stored range: degeneracy of the stored
// range, not the query, decides which overlap rule applies.
func (e treeEntry) Overlap(b interval.IntRange) bool {
	iv := e.Instance.Index.Interval
	if b.Start == b.End {
		return int(iv.Start) <= b.Start && b.Start < int(iv.Stop)
	}
	return int(iv.Start) < b.End && int(iv.Stop) > b.Start
}

func (e treeEntry) ID() uintptr { return e.uid }

func (e treeEntry) Range() interval.IntRange {
	iv := e.Instance.Index.Interval
	return interval.IntRange{Start: int(iv.Start), End: int(iv.Stop)}
}

// Annotation is a single named annotation class: the set of its
// instances, indexed both for sequential scan and for windowed query
// via an interval tree, grounded on annot_t / interval_tree_t in the
// original implementation.
type Annotation struct {
	Name        string
	Description string
	File        string

	// instances holds every Instance, in insertion order until Build
	// sorts it by (start,stop).
	instances []*Instance
	tree      interval.IntTree
	nextUID   uintptr
}

// NewAnnotation returns an empty Annotation named name.
func NewAnnotation(name string) *Annotation {
	return &Annotation{Name: name}
}

// Add appends a new instance; it is indexed for windowed query by the
// next Build. The tree is not usable for Query until Build is called (matching the
// original's explicit build-after-bulk-load step); Add may be called
// repeatedly before a single Build.
func (a *Annotation) Add(idx InstanceIndex) *Instance {
	idx.Annot = a.Name
	in := NewInstance(idx)
	a.instances = append(a.instances, in)
	return in
}

// Build sorts instances by (start,stop) and constructs the interval
// tree, mirroring interval_tree_t::build's stable sort and balanced
// construction (done here via biogo/store/interval's tree, which
// self-balances on AdjustRanges).
func (a *Annotation) Build() error {
	sort.SliceStable(a.instances, func(i, j int) bool {
		ii, jj := a.instances[i].Index.Interval, a.instances[j].Index.Interval
		if ii.Start != jj.Start {
			return ii.Start < jj.Start
		}
		return ii.Stop < jj.Stop
	})
	a.tree = interval.IntTree{}
	for _, in := range a.instances {
		a.nextUID++
		err := a.tree.Insert(treeEntry{uid: a.nextUID, Instance: in}, true)
		if err != nil {
			return fmt.Errorf("annot: indexing %s: %w", a.Name, err)
		}
	}
	a.tree.AdjustRanges()
	return nil
}

// Query returns every instance whose interval overlaps [start,stop),
// using the same point-interval special case as tick.Interval.Overlaps.
func (a *Annotation) Query(start, stop tick.Tick) []*Instance {
	q := treeEntry{Instance: &Instance{Index: InstanceIndex{Interval: tick.NewInterval(start, stop)}}}
	hits := a.tree.Get(q)
	out := make([]*Instance, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(treeEntry).Instance)
	}
	return out
}

// QueryComplete returns every instance whose interval is completely
// contained in [start,stop), matching annot_t::extract_complete_overlap.
func (a *Annotation) QueryComplete(start, stop tick.Tick) []*Instance {
	all := a.Query(start, stop)
	out := all[:0]
	for _, in := range all {
		if in.Index.Interval.Start >= start && in.Index.Interval.Stop <= stop {
			out = append(out, in)
		}
	}
	return out
}

// Instances returns every instance in stable (start,stop) order.
func (a *Annotation) Instances() []*Instance { return a.instances }

// Empty reports whether the annotation has no instances.
func (a *Annotation) Empty() bool { return len(a.instances) == 0 }

// reset discards all instances and the index, keeping the Annotation's
// identity (name, pointer) intact for in-place rebuilds, used by
// AnnotationSet.MakeSleepStage's force_remake path.
func (a *Annotation) reset() {
	a.instances = nil
	a.tree = interval.IntTree{}
	a.nextUID = 0
}

// MinTP returns the earliest instance start tick, or 0 if empty.
func (a *Annotation) MinTP() tick.Tick {
	if len(a.instances) == 0 {
		return 0
	}
	m := a.instances[0].Index.Interval.Start
	for _, in := range a.instances[1:] {
		if in.Index.Interval.Start < m {
			m = in.Index.Interval.Start
		}
	}
	return m
}

// MaxTP returns the latest instance stop tick, or 0 if empty.
func (a *Annotation) MaxTP() tick.Tick {
	var m tick.Tick
	for _, in := range a.instances {
		if in.Index.Interval.Stop > m {
			m = in.Index.Interval.Stop
		}
	}
	return m
}
