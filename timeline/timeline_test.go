// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timeline

import (
	"testing"

	"github.com/kortschak/luna/tick"
)

func TestEpochLayoutUniform(t *testing.T) {
	tl := New()
	tl.Records = []Record{{Start: 0, Dur: 100 * tick.PerSecond}}
	e := 30 * tick.PerSecond
	tl.SetEpochs(e, e)
	if tl.NumEpochs() != 3 {
		t.Fatalf("NumEpochs = %d, want 3", tl.NumEpochs())
	}
	for i := 0; i < tl.NumEpochs(); i++ {
		iv := tl.Epoch(i)
		wantStart := tick.Tick(i) * e
		if iv.Start != wantStart || iv.Duration() != e {
			t.Errorf("epoch %d = %v, want start=%v dur=%v", i, iv, wantStart, e)
		}
	}
}

func TestMaskedPrefersWholeEpochMask(t *testing.T) {
	tl := New()
	tl.Records = []Record{{Start: 0, Dur: 3 * tick.PerSecond}}
	tl.SetEpochs(tick.PerSecond, tick.PerSecond)
	tl.SetEpochMask(1, true)
	if !tl.Masked(1, "C3") {
		t.Errorf("whole-epoch mask should apply regardless of channel")
	}
	if tl.Masked(0, "C3") {
		t.Errorf("epoch 0 should not be masked")
	}
	if err := tl.SetCHEPMask(2, "C3"); err != nil {
		t.Fatalf("SetCHEPMask: %v", err)
	}
	if !tl.Masked(2, "C3") {
		t.Errorf("CHEP mask should apply to channel C3 at epoch 2")
	}
	if tl.Masked(2, "C4") {
		t.Errorf("CHEP mask on C3 should not apply to C4")
	}
}

func TestSliceUsesChannelRate(t *testing.T) {
	tl := New()
	tl.SetRate("C", 2)
	tl.SetChannel("C", []float64{0, 1, 2, 3, 4, 5})
	got, err := tl.Slice("C", tick.NewInterval(0, tick.PerSecond))
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	want := []float64{0, 1}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Slice(0,1s) = %v, want %v", got, want)
	}
}

func TestNextEpochSkipsMasked(t *testing.T) {
	tl := New()
	tl.Records = []Record{{Start: 0, Dur: 3 * tick.PerSecond}}
	tl.SetEpochs(tick.PerSecond, tick.PerSecond)
	tl.SetEpochMask(1, true)
	tl.FirstEpoch()
	var seen []int
	for e := tl.NextEpoch(); e != -1; e = tl.NextEpoch() {
		seen = append(seen, e)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 2 {
		t.Errorf("NextEpoch sequence = %v, want [0 2]", seen)
	}
}
