// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

// Hypnogram owns one recording's edited stage vector plus everything
// derived from it. Epoch indices throughout this package are 0-based
// positions into Stages.
type Hypnogram struct {
	// Stages is the current (possibly edited) per-epoch stage code.
	Stages []Stage
	// EpochMins is the epoch duration in minutes, used to convert
	// epoch counts to clock minutes throughout.
	EpochMins float64

	// LightsOffEpoch/LightsOnEpoch are -1 if undetermined.
	LightsOffEpoch int
	LightsOnEpoch  int

	constrainTooShort bool
	reclassifiedSleep int
}

// NewHypnogram returns a Hypnogram over a freshly loaded (unedited)
// stage vector, with no lights-off/on markers yet resolved.
func NewHypnogram(stages []Stage, epochMins float64) *Hypnogram {
	return &Hypnogram{
		Stages:         append([]Stage(nil), stages...),
		EpochMins:      epochMins,
		LightsOffEpoch: -1,
		LightsOnEpoch:  -1,
	}
}

// LightsSpec gives the raw inputs for step 1 of the edit pipeline.
// Exactly one of the three sources should be populated by the caller
// per the priority order in spec §4.5 (cached trim, command-line,
// annotations); this type only encodes the combination rules once a
// single source has been chosen.
type LightsSpec struct {
	// HaveOff/HaveOn and OffEpoch/OnEpoch hold resolved epoch
	// indices when the source is a direct seconds/HH:MM:SS value or
	// a cached TRIM result.
	HaveOff, HaveOn   bool
	OffEpoch, OnEpoch int

	// OffIntervals/OnIntervals hold raw annotation epoch-ranges
	// (start, stop-exclusive) when the source is lights_on/lights_off
	// annotations, combined per the three rules in spec §4.5 step 1.
	OffIntervals [][2]int
	OnIntervals  [][2]int
}

// ApplyLights resolves lights-off/lights-on epochs from spec and
// reclassifies epochs outside [off,on) as LightsOn, tracking the
// count of sleep epochs that were reclassified.
func (h *Hypnogram) ApplyLights(spec LightsSpec) {
	h.reclassifiedSleep = 0
	off, on := h.resolveLights(spec)
	h.LightsOffEpoch, h.LightsOnEpoch = off, on
	if off < 0 && on < 0 {
		return
	}
	for i, s := range h.Stages {
		outside := (off >= 0 && i < off) || (on >= 0 && i >= on)
		if outside {
			if s.IsSleep() {
				h.reclassifiedSleep++
			}
			if s != Gap {
				h.Stages[i] = LightsOn
			}
		}
	}
}

func (h *Hypnogram) resolveLights(spec LightsSpec) (off, on int) {
	if spec.HaveOff || spec.HaveOn {
		off, on = -1, -1
		if spec.HaveOff {
			off = spec.OffEpoch
		}
		if spec.HaveOn {
			on = spec.OnEpoch
		}
		return off, on
	}

	switch {
	case len(spec.OffIntervals) == 1 && len(spec.OnIntervals) == 0:
		// The off-interval itself is the pre-recording lights-on span;
		// its stop marks lights-off. No lights-on marker is given, so
		// the record runs to its end.
		start, stop := spec.OffIntervals[0][0], spec.OffIntervals[0][1]
		if stop-start < 1 {
			stop = start
		}
		off = stop
		on = len(h.Stages)
		return off, on
	case len(spec.OffIntervals) == 1 && len(spec.OnIntervals) >= 1 &&
		spec.OffIntervals[0][1] == spec.OffIntervals[0][0]:
		off = spec.OffIntervals[0][0]
		on = spec.OnIntervals[0][0]
		for _, iv := range spec.OnIntervals[1:] {
			if iv[0] > on {
				on = iv[0]
			}
		}
		return off, on
	case len(spec.OffIntervals) == 0 && len(spec.OnIntervals) == 2:
		off = spec.OnIntervals[0][1]
		on = spec.OnIntervals[1][0]
		return off, on
	default:
		return -1, -1
	}
}

// ReclassifiedSleepEpochs returns the number of sleep epochs folded
// into LightsOn by the most recent ApplyLights call.
func (h *Hypnogram) ReclassifiedSleepEpochs() int { return h.reclassifiedSleep }

// CutParams holds the parameters for the optional cut-point edit
// (spec §4.5 step 2), with the spec's documented defaults.
type CutParams struct {
	Threshold float64 // th, default 50
	Factor    float64 // fac, default 3
	Gap       int     // gap, default 10 epochs
	Flank     int     // flank, default 10 epochs
}

// DefaultCutParams returns the spec-documented defaults (50, 3, 10, 10).
func DefaultCutParams() CutParams { return CutParams{Threshold: 50, Factor: 3, Gap: 10, Flank: 10} }

// ApplyCut implements the cut-point edit: build a major-sleep-period
// mask, score forward/backward from its edges, and demote epochs
// outside the best-scoring cuts to Unknown.
func (h *Hypnogram) ApplyCut(p CutParams) {
	n := len(h.Stages)
	if n == 0 {
		return
	}
	msp := make([]bool, n)
	for i, s := range h.Stages {
		msp[i] = s.IsSleep()
	}
	// close short wake gaps within the sleep period
	i := 0
	for i < n {
		if msp[i] {
			i++
			continue
		}
		j := i
		for j < n && !msp[j] {
			j++
		}
		if i > 0 && j < n && j-i <= p.Gap {
			for k := i; k < j; k++ {
				msp[k] = true
			}
		}
		i = j
	}
	// extend flanks
	first, last := -1, -1
	for i, v := range msp {
		if v {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return
	}
	for k := first - 1; k >= 0 && k >= first-p.Flank; k-- {
		msp[k] = true
	}
	for k := last + 1; k < n && k <= last+p.Flank; k++ {
		msp[k] = true
	}
	first, last = -1, -1
	for i, v := range msp {
		if v {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	median := (first + last) / 2

	score := func(i int) float64 {
		if h.Stages[i].IsSleep() {
			return -p.Factor
		}
		return 1
	}

	bestLeft, bestLeftScore := -1, p.Threshold
	acc := 0.0
	for k := 0; k < first && k < median; k++ {
		acc += score(k)
		if acc > bestLeftScore {
			bestLeftScore = acc
			bestLeft = k
		}
	}
	bestRight, bestRightScore := -1, p.Threshold
	acc = 0.0
	for k := n - 1; k > last && k > median; k-- {
		acc += score(k)
		if acc > bestRightScore {
			bestRightScore = acc
			bestRight = k
		}
	}

	for i := 0; i < n; i++ {
		inCut := i > bestLeft && (bestRight < 0 || i < bestRight)
		if !inCut && h.Stages[i] != Gap {
			h.Stages[i] = Unknown
		}
	}
}

// ApplyEndWakeEndSleep implements step 3: demote trailing/leading
// sleep beyond an end-wake/end-sleep criterion to Unknown.
func (h *Hypnogram) ApplyEndWakeEndSleep(endWakeMin, endSleepMin float64) {
	n := len(h.Stages)
	if n == 0 || h.EpochMins <= 0 {
		return
	}
	endWakeEpochs := int(endWakeMin / h.EpochMins)
	endSleepEpochs := int(endSleepMin / h.EpochMins)

	leadWake := 0
	for i := 0; i < n; i++ {
		if h.Stages[i] == Wake {
			leadWake++
			continue
		}
		if h.Stages[i].IsSleep() {
			remaining := h.countSleepFrom(i, n)
			if leadWake > endWakeEpochs && remaining < endSleepEpochs {
				for k := i; k < n; k++ {
					if h.Stages[k].IsSleep() {
						h.Stages[k] = Unknown
					}
				}
				return
			}
		}
		leadWake = 0
	}

	trailWake := 0
	for i := n - 1; i >= 0; i-- {
		if h.Stages[i] == Wake {
			trailWake++
			continue
		}
		if h.Stages[i].IsSleep() {
			remaining := h.countSleepFrom(0, i+1)
			if trailWake > endWakeEpochs && remaining < endSleepEpochs {
				for k := i; k >= 0; k-- {
					if h.Stages[k].IsSleep() {
						h.Stages[k] = Unknown
					}
				}
				return
			}
		}
		trailWake = 0
	}
}

func (h *Hypnogram) countSleepFrom(lo, hi int) int {
	n := 0
	for i := lo; i < hi && i < len(h.Stages); i++ {
		if h.Stages[i].IsSleep() {
			n++
		}
	}
	return n
}

// TrimFlankingWake implements step 4: retain k wake epochs adjacent
// to sleep on each side of the record, demoting further flanking wake
// to Unknown.
func (h *Hypnogram) TrimFlankingWake(leadingK, trailingK int) {
	n := len(h.Stages)
	firstSleep, lastSleep := -1, -1
	for i, s := range h.Stages {
		if s.IsSleep() {
			if firstSleep < 0 {
				firstSleep = i
			}
			lastSleep = i
		}
	}
	if firstSleep < 0 {
		return
	}
	cut := firstSleep - leadingK
	for i := 0; i < cut; i++ {
		if h.Stages[i] == Wake {
			h.Stages[i] = Unknown
		}
	}
	cut2 := lastSleep + trailingK
	for i := cut2 + 1; i < n; i++ {
		if h.Stages[i] == Wake {
			h.Stages[i] = Unknown
		}
	}
}

// TrimLeadingTrailingUnknown implements step 5: leading/trailing
// Unknown epochs become LightsOn, provided the record contains at
// least one scored stage.
func (h *Hypnogram) TrimLeadingTrailingUnknown() {
	n := len(h.Stages)
	anyScored := false
	for _, s := range h.Stages {
		if s != Unknown && s != Gap {
			anyScored = true
			break
		}
	}
	if !anyScored {
		return
	}
	for i := 0; i < n && h.Stages[i] == Unknown; i++ {
		h.Stages[i] = LightsOn
	}
	for i := n - 1; i >= 0 && h.Stages[i] == Unknown; i-- {
		h.Stages[i] = LightsOn
	}
}

// Anchor names the landmark epochs T0..T6 used by windowing commands
// (spec §4.5 step 6 and the sliding-window density section).
type Anchor int

const (
	T0 Anchor = iota // EDF start
	T1               // lights-out
	T2               // sleep onset
	T3               // sleep midpoint
	T4               // final wake
	T5               // lights-on
	T6               // EDF end
)

// ApplyWindow implements step 6: retain only [anchor, anchor+mins)
// (or (anchor-mins, anchor] for end-anchored windows the caller
// resolves before calling), demoting everything else to LightsOn.
// anchorEpoch is the caller-resolved epoch for the chosen Anchor.
func (h *Hypnogram) ApplyWindow(anchorEpoch int, mins float64) {
	if h.EpochMins <= 0 {
		return
	}
	n := len(h.Stages)
	width := int(mins / h.EpochMins)
	end := anchorEpoch + width
	if end > n {
		end = n
		h.constrainTooShort = true
	}
	for i := 0; i < n; i++ {
		if (i < anchorEpoch || i >= end) && h.Stages[i] != Gap {
			h.Stages[i] = LightsOn
		}
	}
}

// ConstrainTooShort reports whether the most recent ApplyWindow call
// truncated the requested window.
func (h *Hypnogram) ConstrainTooShort() bool { return h.constrainTooShort }
