// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trans implements the expression-driven synthesis command
// (TRANS, spec §4.6): binding channel samples as vectors, evaluating
// an expression over them, and writing the result back either to a
// signal channel or to a new annotation built from a boolean vector.
package trans

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kortschak/luna/annot"
	"github.com/kortschak/luna/avar"
	"github.com/kortschak/luna/tick"
	"github.com/kortschak/luna/timeline"
	"github.com/kortschak/luna/token"
)

// Params holds the recognized TRANS parameters (spec §6): exactly one
// of Sig or Annot names the write target, Expr is the script text, and
// Verbose enables additional diagnostic logging by the caller.
type Params struct {
	Sig     string
	Annot   string
	Expr    string
	Verbose bool
}

var notAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// sanitize rewrites a channel identifier so it is safe to use as a
// token variable name, replacing every non-alphanumeric rune with an
// underscore, per spec §4.6.
func sanitize(name string) string {
	return notAlnum.ReplaceAllString(name, "_")
}

// channelRefs returns the set of channel identifiers referenced in
// expr: a loaded channel on tl is referenced when its raw or
// sanitized name occurs anywhere in expr as a substring, so a name
// inside a longer identifier also matches.
func channelRefs(expr string, tl *timeline.Timeline, channels []string) []string {
	var refs []string
	for _, ch := range channels {
		if !tl.HasChannel(ch) {
			continue
		}
		if strings.Contains(expr, ch) || strings.Contains(expr, sanitize(ch)) {
			refs = append(refs, ch)
		}
	}
	return refs
}

// Run executes a TRANS command: it binds the referenced channels as
// float vectors, evaluates p.Expr, and writes the result to either an
// updated/created signal channel (p.Sig) or a new annotation (p.Annot)
// built from a boolean vector's contiguous true runs.
func Run(p Params, tl *timeline.Timeline, set *annot.AnnotationSet, knownChannels []string) error {
	if (p.Sig == "") == (p.Annot == "") {
		return fmt.Errorf("trans: exactly one of sig or annot must be set")
	}

	refs := channelRefs(p.Expr, tl, knownChannels)
	if len(refs) == 0 {
		return fmt.Errorf("trans: expression references no loaded channel")
	}

	var rate float64
	for i, ch := range refs {
		r := tl.Rate(ch)
		if i == 0 {
			rate = r
		} else if r != rate {
			return fmt.Errorf("trans: channel %q sampling rate %v does not match %v", ch, r, rate)
		}
	}

	inst := token.NewMapInstance()
	n := -1
	for _, ch := range refs {
		data, ok := tl.Channel(ch)
		if !ok {
			return fmt.Errorf("trans: no data for channel %q", ch)
		}
		if n < 0 {
			n = len(data)
		} else if len(data) != n {
			return fmt.Errorf("trans: channel %q length %d does not match %d", ch, len(data), n)
		}
		inst.Set(sanitize(ch), avar.NewDblVec(data))
	}

	ev := token.NewEvaluator(inst)
	result := ev.Eval(p.Expr)
	if !ev.Valid() {
		return fmt.Errorf("trans: expression evaluation failed")
	}

	if p.Sig != "" {
		vals := result.AsDblVec()
		if len(vals) == 0 && !result.IsVector() {
			vals = []float64{result.AsDbl()}
		}
		tl.SetRate(p.Sig, rate)
		tl.SetChannel(p.Sig, vals)
		return nil
	}

	if !result.IsVector() || result.Tag() != avar.BoolVec {
		return fmt.Errorf("trans: annot= expression must evaluate to a boolean vector")
	}
	mask := result.AsBoolVec()
	return writeBoolRuns(set, p.Annot, refs[0], tl, mask)
}

// writeBoolRuns converts contiguous true runs of mask (indexed at
// channel's sampling rate) into instances of annotation name, per the
// worked example in spec §4.6/§8 (7 samples, threshold 0.5, 2 runs).
func writeBoolRuns(set *annot.AnnotationSet, name, channel string, tl *timeline.Timeline, mask []bool) error {
	ann := set.Add(name)
	n := len(mask)
	count := 0
	for i := 0; i < n; {
		if !mask[i] {
			i++
			continue
		}
		j := i + 1
		for j < n && mask[j] {
			j++
		}
		start, err := tl.SampleTick(channel, i)
		if err != nil {
			return err
		}
		stop, err := tl.SampleTick(channel, j)
		if err != nil {
			return err
		}
		count++
		ann.Add(annot.InstanceIndex{
			Interval: tick.NewInterval(start, stop),
			ID:       fmt.Sprintf("%s_%d", name, count),
			Channel:  channel,
		})
		i = j
	}
	return ann.Build()
}
