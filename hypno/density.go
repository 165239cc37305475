// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

// DensityWindow is one (width, increment, anchor) request for the
// sliding-window stage density calculation (spec §4.5).
type DensityWindow struct {
	WidthMin     float64
	IncrementMin float64
	Anchor       Anchor
}

// DensityResult is one window's class-density readout.
type DensityResult struct {
	StartEpoch int
	StopEpoch  int
	Density    map[Stage]float64 // matches / window size
}

// ComputeDensity enumerates windows per w and returns per-window
// per-class density. anchorEpoch resolves w.Anchor to a concrete
// epoch index (T3, the sleep midpoint, additionally generates windows
// both backward and forward from the anchor).
func (h *Hypnogram) ComputeDensity(w DensityWindow, anchorEpoch int) []DensityResult {
	if h.EpochMins <= 0 {
		return nil
	}
	width := int(w.WidthMin / h.EpochMins)
	inc := int(w.IncrementMin / h.EpochMins)
	if width <= 0 || inc <= 0 {
		return nil
	}
	n := len(h.Stages)

	var results []DensityResult
	emit := func(start int) {
		stop := start + width
		if start < 0 || stop > n {
			return
		}
		res := DensityResult{StartEpoch: start, StopEpoch: stop, Density: make(map[Stage]float64)}
		counts := make(map[Stage]int)
		for _, s := range h.Stages[start:stop] {
			counts[s]++
		}
		for s, c := range counts {
			res.Density[s] = float64(c) / float64(width)
		}
		results = append(results, res)
	}

	if w.Anchor == T3 {
		for start := anchorEpoch; start+width <= n; start += inc {
			emit(start)
		}
		for start := anchorEpoch - width; start >= 0; start -= inc {
			emit(start)
		}
		return results
	}

	for start := anchorEpoch; start+width <= n; start += inc {
		emit(start)
	}
	return results
}
