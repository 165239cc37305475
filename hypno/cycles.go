// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

// Cycle definitions (spec §4.5, modified Feinberg-Floyd):
const (
	nremPeriodMinMins  = 15.0
	remPeriodMinMins   = 5.0
	interruptMaxMins   = 15.0
	terminatingWASOMin = 15.0
)

// Cycle is one completed NREM/REM sleep cycle.
type Cycle struct {
	StartEpoch  int
	DurationMin float64
	NREMMin     float64
	REMMin      float64
}

// CycleEpoch carries the per-epoch outputs of cycle detection.
type CycleEpoch struct {
	// Period is "NREM", "REM", or "" (not within a scored cycle).
	Period           string
	CycleNumber      int // 0 if not within any cycle
	CycleEndingWASO  bool
	PosRelative      float64 // position within cycle, 0..1
	PosAbsoluteMin   float64 // minutes elapsed since cycle start
}

// ComputeCycles detects Feinberg-Floyd NREM/REM cycles over the
// edited stage vector and returns both the cycle list and a parallel
// per-epoch annotation slice.
func (h *Hypnogram) ComputeCycles() ([]Cycle, []CycleEpoch) {
	n := len(h.Stages)
	epochs := make([]CycleEpoch, n)
	if n == 0 || h.EpochMins <= 0 {
		return nil, epochs
	}

	// runs: contiguous blocks of the "period code" 0=other,1=NREM,5=REM
	type run struct {
		code     int
		start    int
		stop     int // exclusive
	}
	code := func(s Stage) int {
		switch {
		case s == N1 || s == N2 || s == N3 || s == N4:
			return 1
		case s == REM:
			return 5
		default:
			return 0
		}
	}
	var runs []run
	for i := 0; i < n; {
		c := code(h.Stages[i])
		j := i + 1
		for j < n && code(h.Stages[j]) == c {
			j++
		}
		runs = append(runs, run{code: c, start: i, stop: j})
		i = j
	}

	var cycles []Cycle
	cycleNum := 0
	curStart := -1
	var curNREMMin, curREMMin float64

	flush := func(endEpoch int) {
		if curStart < 0 {
			return
		}
		dur := float64(endEpoch-curStart) * h.EpochMins
		if curNREMMin >= nremPeriodMinMins {
			cycleNum++
			cycles = append(cycles, Cycle{
				StartEpoch:  curStart,
				DurationMin: dur,
				NREMMin:     curNREMMin,
				REMMin:      curREMMin,
			})
			for e := curStart; e < endEpoch && e < n; e++ {
				epochs[e].CycleNumber = cycleNum
				elapsed := float64(e-curStart) * h.EpochMins
				epochs[e].PosAbsoluteMin = elapsed
				if dur > 0 {
					epochs[e].PosRelative = elapsed / dur
				}
			}
		}
		curStart, curNREMMin, curREMMin = -1, 0, 0
	}

	for idx, r := range runs {
		mins := float64(r.stop-r.start) * h.EpochMins
		switch r.code {
		case 1:
			for e := r.start; e < r.stop; e++ {
				epochs[e].Period = "NREM"
			}
			if curStart < 0 {
				curStart = r.start
			}
			curNREMMin += mins
		case 5:
			if mins >= remPeriodMinMins || len(cycles) >= 1 {
				for e := r.start; e < r.stop; e++ {
					epochs[e].Period = "REM"
				}
				curREMMin += mins
			}
			// a completed REM run ends the current cycle
			flush(r.stop)
		default:
			if mins >= interruptMaxMins {
				flush(r.start)
			}
			if mins >= terminatingWASOMin {
				for e := r.start; e < r.stop && e < n; e++ {
					epochs[e].CycleEndingWASO = true
				}
			}
		}
		if idx == len(runs)-1 {
			flush(r.stop)
		}
	}

	return cycles, epochs
}
