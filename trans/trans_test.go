// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trans

import (
	"testing"

	"github.com/kortschak/luna/annot"
	"github.com/kortschak/luna/timeline"
)

func TestRunAnnotHighThreshold(t *testing.T) {
	tl := timeline.New()
	tl.SetRate("C", 1)
	tl.SetChannel("C", []float64{0.1, 0.6, 0.7, 0.2, 0.8, 0.9, 0.3})

	set := annot.NewAnnotationSet()

	p := Params{Annot: "HIGH", Expr: "C > 0.5"}
	if err := Run(p, tl, set, []string{"C"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ann, ok := set.Get("HIGH")
	if !ok {
		t.Fatalf("annotation HIGH not created")
	}
	instances := ann.Instances()
	if len(instances) != 2 {
		t.Fatalf("got %d instances, want 2", len(instances))
	}
	if instances[0].Index.Interval.Start != 1_000_000_000 || instances[0].Index.Interval.Stop != 3_000_000_000 {
		t.Errorf("instance 0 interval = %v, want [1,3)s", instances[0].Index.Interval)
	}
	if instances[1].Index.Interval.Start != 4_000_000_000 || instances[1].Index.Interval.Stop != 6_000_000_000 {
		t.Errorf("instance 1 interval = %v, want [4,6)s", instances[1].Index.Interval)
	}
}

func TestRunSigCreatesChannel(t *testing.T) {
	tl := timeline.New()
	tl.SetRate("C", 1)
	tl.SetChannel("C", []float64{1, 2, 3})

	set := annot.NewAnnotationSet()
	p := Params{Sig: "D", Expr: "C + 1"}
	if err := Run(p, tl, set, []string{"C"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, ok := tl.Channel("D")
	if !ok {
		t.Fatalf("channel D not created")
	}
	want := []float64{2, 3, 4}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("D[%d] = %v, want %v", i, data[i], want[i])
		}
	}
}
