// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annot

import (
	"testing"

	"github.com/kortschak/luna/tick"
)

func iv(start, stop int64) tick.Interval {
	return tick.NewInterval(tick.Tick(start), tick.Tick(stop))
}

func TestQueryMatchesNaiveFilter(t *testing.T) {
	ann := NewAnnotation("spindle")
	bounds := [][2]int64{{0, 10}, {5, 15}, {12, 20}, {100, 100}}
	for i, b := range bounds {
		ann.Add(InstanceIndex{Interval: iv(b[0], b[1]), ID: string(rune('a' + i))})
	}
	if err := ann.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := ann.Query(8, 13)
	if len(got) != 3 {
		t.Fatalf("Query(8,13) got %d instances, want 3", len(got))
	}

	got = ann.Query(100, 101)
	if len(got) != 1 || got[0].Index.Interval.Start != 100 {
		t.Fatalf("Query(100,101) got %v, want the point interval", got)
	}
}

func TestQueryCompleteRequiresFullContainment(t *testing.T) {
	ann := NewAnnotation("stage")
	ann.Add(InstanceIndex{Interval: iv(5, 15), ID: "a"})
	if err := ann.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(ann.QueryComplete(0, 10)) != 0 {
		t.Errorf("QueryComplete(0,10) should exclude partially overlapping instance")
	}
	if len(ann.QueryComplete(0, 20)) != 1 {
		t.Errorf("QueryComplete(0,20) should include fully contained instance")
	}
}

func TestAnnotationSetAddIsIdempotent(t *testing.T) {
	set := NewAnnotationSet()
	a := set.Add("arousal")
	b := set.Add("arousal")
	if a != b {
		t.Errorf("Add called twice with same name should return the same Annotation")
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestMakeSleepStageFlagsConflicts(t *testing.T) {
	set := NewAnnotationSet()
	wake := set.Add("wake_src")
	wake.Add(InstanceIndex{Interval: iv(0, 30)})
	n2 := set.Add("n2_src")
	n2.Add(InstanceIndex{Interval: iv(30, 60)})
	// Overlapping source: both wake_src and n2_src cover [30,60).
	wake.Add(InstanceIndex{Interval: iv(30, 60)})
	if err := set.BuildAll(); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}

	canonical, conflicts, err := set.MakeSleepStage(SleepStageSources{Wake: "wake_src", N2: "n2_src"}, 30, 30, 2, false)
	if err != nil {
		t.Fatalf("MakeSleepStage: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0] != 1 {
		t.Fatalf("conflicts = %v, want [1]", conflicts)
	}
	instances := canonical.Instances()
	if len(instances) != 2 {
		t.Fatalf("got %d canonical instances, want 2", len(instances))
	}
	if instances[0].Index.ID != "W" {
		t.Errorf("epoch 0 label = %q, want W", instances[0].Index.ID)
	}
	if instances[1].Index.ID != "?" {
		t.Errorf("epoch 1 (conflicting) label = %q, want ?", instances[1].Index.ID)
	}

	// Without forceRemake, a second call returns the cached result.
	again, conflictsAgain, err := set.MakeSleepStage(SleepStageSources{Wake: "wake_src", N2: "n2_src"}, 30, 30, 2, false)
	if err != nil {
		t.Fatalf("MakeSleepStage (cached): %v", err)
	}
	if again != canonical || conflictsAgain != nil {
		t.Errorf("cached MakeSleepStage should return existing annotation with no conflicts reported")
	}
}
