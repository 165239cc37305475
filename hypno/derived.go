// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

import (
	"fmt"

	"github.com/kortschak/luna/annot"
	"github.com/kortschak/luna/avar"
	"github.com/kortschak/luna/tick"
)

// EpochToInterval converts an epoch index to a tick.Interval given
// the recording's epoch length and increment.
func EpochToInterval(i int, epochLen, epochInc tick.Tick) tick.Interval {
	start := tick.Tick(i) * epochInc
	return tick.NewInterval(start, start+epochLen)
}

// DerivedOptions selects the derived-annotation families that
// EmitDerived writes into set: sleep landmarks, NREM-cycle spans,
// per-class bouts, clock-hour markers and epoch-level flags, each
// gated by the bool of the same name. Elapsed is accepted but
// EmitDerived writes no elapsed-time annotations for it.
type DerivedOptions struct {
	Cycles   bool
	Bouts    bool
	ClockHr  bool
	Elapsed  bool
	Landmarks bool
	EpochFlags bool
}

// EmitDerived writes the requested derived annotation families
// computed from h into set.
func (h *Hypnogram) EmitDerived(set *annot.AnnotationSet, epochLen, epochInc tick.Tick, opts DerivedOptions) {
	stats := h.Compute()

	if opts.Landmarks {
		land := set.Add("landmarks")
		emit := func(name string, epoch int) {
			if epoch < 0 || epoch >= len(h.Stages) {
				return
			}
			iv := EpochToInterval(epoch, epochLen, epochInc)
			in := land.Add(annot.InstanceIndex{Interval: iv, ID: name})
			in.Set("label", avar.NewTxt(name))
		}
		emit("t1", stats.LightsOutEpoch)
		emit("t2", stats.FirstSleepEpoch)
		emit("t4", stats.FinalWakeEpoch)
		emit("t5", stats.LightsOnEpoch)
	}

	if opts.Cycles {
		cycles, perEpoch := h.ComputeCycles()
		cycleAnn := set.Add("cycle")
		for i, c := range cycles {
			start := EpochToInterval(c.StartEpoch, epochLen, epochInc)
			stopEpoch := c.StartEpoch
			for e := c.StartEpoch; e < len(perEpoch); e++ {
				if perEpoch[e].CycleNumber == i+1 {
					stopEpoch = e
				}
			}
			stop := EpochToInterval(stopEpoch, epochLen, epochInc)
			in := cycleAnn.Add(annot.InstanceIndex{
				Interval: tick.NewInterval(start.Start, stop.Stop),
				ID:       fmt.Sprintf("n%d", i+1),
			})
			in.Set("duration_min", avar.NewDbl(c.DurationMin))
			in.Set("nrem_min", avar.NewDbl(c.NREMMin))
			in.Set("rem_min", avar.NewDbl(c.REMMin))
		}
	}

	if opts.Bouts {
		boutAnn := set.Add("bout")
		for _, run := range h.stageBouts() {
			iv := tick.NewInterval(
				EpochToInterval(run.start, epochLen, epochInc).Start,
				EpochToInterval(run.stop-1, epochLen, epochInc).Stop,
			)
			mins := float64(run.stop-run.start) * h.EpochMins
			label := "bout05"
			if mins >= 10 {
				label = "bout10"
			} else if mins < 5 {
				continue
			}
			in := boutAnn.Add(annot.InstanceIndex{Interval: iv, ID: fmt.Sprintf("%s_%s", label, run.stage)})
			in.Set("stage", avar.NewTxt(run.stage.String()))
			in.Set("minutes", avar.NewDbl(mins))
		}
	}

	if opts.ClockHr {
		clock := set.Add("clock")
		for i := range h.Stages {
			hour := int(float64(i)*h.EpochMins/60) % 24
			iv := EpochToInterval(i, epochLen, epochInc)
			in := clock.Add(annot.InstanceIndex{Interval: iv, ID: fmt.Sprintf("clock_%02d", hour)})
			in.Set("hour", avar.NewInt(hour))
		}
	}

	if opts.EpochFlags {
		flags := set.Add("epoch_flags")
		firstSleep := stats.FirstSleepEpoch
		finalWake := stats.FinalWakeEpoch
		for i, s := range h.Stages {
			iv := EpochToInterval(i, epochLen, epochInc)
			in := flags.Add(annot.InstanceIndex{Interval: iv, ID: fmt.Sprintf("e%d", i)})
			waso := s == Wake && firstSleep >= 0 && i > firstSleep && (finalWake < 0 || i < finalWake)
			in.Set("waso", avar.NewBool(waso))
			in.Set("pre_sleep", avar.NewBool(firstSleep >= 0 && i < firstSleep))
			in.Set("post_sleep", avar.NewBool(finalWake >= 0 && i >= finalWake))
			in.Set("persistent_sleep", avar.NewBool(stats.FirstPersistentSleepEpoch >= 0 && i >= stats.FirstPersistentSleepEpoch))
		}
	}
}

type stageBout struct {
	stage      Stage
	start, stop int
}

func (h *Hypnogram) stageBouts() []stageBout {
	var out []stageBout
	n := len(h.Stages)
	for i := 0; i < n; {
		j := i + 1
		for j < n && h.Stages[j] == h.Stages[i] {
			j++
		}
		out = append(out, stageBout{stage: h.Stages[i], start: i, stop: j})
		i = j
	}
	return out
}
