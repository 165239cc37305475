// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

import "testing"

func stages(s ...Stage) []Stage { return s }

func TestComputeBasicStats(t *testing.T) {
	h := NewHypnogram(stages(Wake, Wake, N1, N2, N2, N3, REM, Wake, N2, Wake), 0.5)
	st := h.Compute()
	if st.NWake != 4 {
		t.Errorf("NWake = %d, want 4", st.NWake)
	}
	if st.NN2 != 3 {
		t.Errorf("NN2 = %d, want 3", st.NN2)
	}
	wantTST := float64(3+1+1+1) * 0.5
	if st.TST != wantTST {
		t.Errorf("TST = %v, want %v", st.TST, wantTST)
	}
}

func TestN2Class(t *testing.T) {
	if N2Class(0.5) != "ASC" {
		t.Errorf("N2Class(0.5) != ASC")
	}
	if N2Class(-0.5) != "DSC" {
		t.Errorf("N2Class(-0.5) != DSC")
	}
	if N2Class(0.1) != "FLT" {
		t.Errorf("N2Class(0.1) != FLT")
	}
}

func TestApplyLightsOneOffZeroOn(t *testing.T) {
	h := NewHypnogram(stages(Wake, Wake, N1, N2, N3, REM, Wake), 0.5)
	spec := LightsSpec{OffIntervals: [][2]int{{0, 2}}}
	h.ApplyLights(spec)
	if h.LightsOffEpoch != 2 || h.LightsOnEpoch != 7 {
		t.Errorf("lights = (%d,%d), want (2,7)", h.LightsOffEpoch, h.LightsOnEpoch)
	}
	if h.Stages[0] != LightsOn || h.Stages[1] != LightsOn {
		t.Errorf("epochs before lights-off should be LightsOn: %v", h.Stages[:2])
	}
}

func TestComputeTransitionsSumsToN(t *testing.T) {
	h := NewHypnogram(stages(Wake, N1, N2, N2, REM, Wake), 0.5)
	tr := h.ComputeTransitions()
	var total float64
	r, c := tr.Counts5.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			total += tr.Counts5.At(i, j)
		}
	}
	if total != float64(len(h.Stages)-1) {
		t.Errorf("transition count total = %v, want %d", total, len(h.Stages)-1)
	}
}

func TestLZWConstantSequenceRatioOne(t *testing.T) {
	h := NewHypnogram(stages(N2, N2, N2, N2, N2, N2, N2, N2), 0.5)
	c := h.ComputeLZW()
	if c.Ratio5 != 1 {
		t.Errorf("Ratio5 = %v, want 1 for constant sequence", c.Ratio5)
	}
}

func TestComputeCyclesFindsOneCycle(t *testing.T) {
	n1 := make([]Stage, 0, 60)
	for i := 0; i < 40; i++ {
		n1 = append(n1, N2)
	}
	for i := 0; i < 20; i++ {
		n1 = append(n1, REM)
	}
	h := NewHypnogram(n1, 0.5)
	cycles, _ := h.ComputeCycles()
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1", len(cycles))
	}
	if cycles[0].NREMMin != 20 {
		t.Errorf("NREMMin = %v, want 20", cycles[0].NREMMin)
	}
}

func TestComputeFlankingBlockTotal(t *testing.T) {
	h := NewHypnogram(stages(Wake, Wake, Wake, N2, N2), 0.5)
	f := h.ComputeFlanking()
	if f.BlockTotal[0] != 3 || f.BlockTotal[3] != 2 {
		t.Errorf("BlockTotal = %v, want [3,3,3,2,2]", f.BlockTotal)
	}
}
