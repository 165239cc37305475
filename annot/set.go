// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annot

import (
	"github.com/biogo/store/llrb"

	"github.com/kortschak/luna/tick"
)

// nameKey adapts a plain string to llrb.Comparable for the byName
// ordered tree.
type nameKey string

func (k nameKey) Less(than llrb.Comparable) bool {
	return string(k) < string(than.(nameKey))
}

// nameEntry is the node payload stored in the byName tree: the sort
// key (the annotation name) paired with the Annotation itself.
type nameEntry struct {
	key nameKey
	ann *Annotation
}

func (e nameEntry) Less(than llrb.Comparable) bool {
	return e.key.Less(than.(nameEntry).key)
}

// AnnotationSet is the top-level collection of named Annotation
// classes attached to a single recording, grounded on
// annotation_set_t in the original implementation. Names are held in
// an LLRB tree so that iteration (e.g. for a report header) is always
// in a stable, sorted order without an explicit sort step.
type AnnotationSet struct {
	byName llrb.Tree

	StartHMS    string
	DurationHMS string
	DurationSec float64
	EpochSec    float64
}

// NewAnnotationSet returns an empty AnnotationSet.
func NewAnnotationSet() *AnnotationSet {
	return &AnnotationSet{StartHMS: "."}
}

// Add registers a new, empty Annotation named name and returns it, or
// returns the existing Annotation of that name if already present.
func (s *AnnotationSet) Add(name string) *Annotation {
	if a, ok := s.Get(name); ok {
		return a
	}
	a := NewAnnotation(name)
	s.byName.Insert(nameEntry{key: nameKey(name), ann: a})
	return a
}

// Get returns the Annotation named name, if present.
func (s *AnnotationSet) Get(name string) (*Annotation, bool) {
	got := s.byName.Get(nameEntry{key: nameKey(name)})
	if got == nil {
		return nil, false
	}
	return got.(nameEntry).ann, true
}

// Names returns every registered annotation name in sorted order.
func (s *AnnotationSet) Names() []string {
	var out []string
	s.byName.Do(func(c llrb.Comparable) bool {
		out = append(out, string(c.(nameEntry).key))
		return false
	})
	return out
}

// Len returns the number of distinct annotation classes.
func (s *AnnotationSet) Len() int { return s.byName.Len() }

// BuildAll indexes every registered annotation's interval tree; call
// once after loading is complete and before any windowed Query.
func (s *AnnotationSet) BuildAll() error {
	var err error
	s.byName.Do(func(c llrb.Comparable) bool {
		if buildErr := c.(nameEntry).ann.Build(); buildErr != nil {
			err = buildErr
			return true
		}
		return false
	})
	return err
}

// SleepStageSources names up to eight source annotations, one per
// stage, used by MakeSleepStage to synthesize a single canonical
// sleep-stage annotation. An empty field is skipped.
type SleepStageSources struct {
	Wake, N1, N2, N3, N4, REM, Light, Other string
}

// sleepStageCanonicalName is the name of the synthesized annotation,
// matching the "SLEEP STAGE" canonical annotation in the original.
const sleepStageCanonicalName = "SleepStage"

// MakeSleepStage attempts to synthesize a single canonical sleep-stage
// annotation from up to eight source annotations (one per stage),
// mirroring annotation_set_t::make_sleep_stage in the original. If the
// canonical annotation already exists, it is rebuilt only when
// forceRemake is set. Every source annotation must already be built
// (Build called) so its Query is usable. An epoch spanned by more than
// one source annotation is recorded as conflicting and coded "?"
// (Unknown) in the synthesized annotation; MakeSleepStage returns the
// 0-based indices of every conflicting epoch.
func (s *AnnotationSet) MakeSleepStage(src SleepStageSources, epochLen, epochInc tick.Tick, numEpochs int, forceRemake bool) (*Annotation, []int, error) {
	canonical, existed := s.Get(sleepStageCanonicalName)
	if existed {
		if !forceRemake {
			return canonical, nil, nil
		}
		canonical.reset()
	} else {
		canonical = s.Add(sleepStageCanonicalName)
	}

	type labeledSource struct {
		ann   *Annotation
		label string
	}
	var sources []labeledSource
	for _, sp := range [...]struct{ name, label string }{
		{src.Wake, "W"}, {src.N1, "N1"}, {src.N2, "N2"}, {src.N3, "N3"},
		{src.N4, "N4"}, {src.REM, "R"}, {src.Light, "L"}, {src.Other, "?"},
	} {
		if sp.name == "" {
			continue
		}
		a, ok := s.Get(sp.name)
		if !ok || a.Empty() {
			continue
		}
		sources = append(sources, labeledSource{ann: a, label: sp.label})
	}

	var conflicts []int
	for e := 0; e < numEpochs; e++ {
		start := tick.Tick(e) * epochInc
		iv := tick.NewInterval(start, start+epochLen)

		label, hits := "", 0
		for _, src := range sources {
			if len(src.ann.Query(iv.Start, iv.Stop)) > 0 {
				hits++
				label = src.label
			}
		}
		switch {
		case hits == 0:
			continue
		case hits > 1:
			label = "?"
			conflicts = append(conflicts, e)
		}
		canonical.Add(InstanceIndex{Interval: iv, ID: label})
	}

	if err := canonical.Build(); err != nil {
		return nil, conflicts, err
	}
	return canonical, conflicts, nil
}
