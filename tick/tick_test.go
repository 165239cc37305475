// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tick

import "testing"

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		iv         Interval
		qs, qe     Tick
		wantOverlap bool
	}{
		{NewInterval(0, 10), 8, 13, true},
		{NewInterval(5, 15), 8, 13, true},
		{NewInterval(12, 20), 8, 13, true},
		{NewInterval(100, 100), 100, 101, true},
		{NewInterval(100, 100), 99, 100, false},
		{NewInterval(0, 10), 10, 20, false},
		{NewInterval(0, 10), -5, 0, false},
	}
	for _, c := range cases {
		got := c.iv.Overlaps(c.qs, c.qe)
		if got != c.wantOverlap {
			t.Errorf("%v.Overlaps(%d,%d) = %v, want %v", c.iv, c.qs, c.qe, got, c.wantOverlap)
		}
	}
}

func TestIntervalContainedIn(t *testing.T) {
	iv := NewInterval(10, 20)
	if !iv.ContainedIn(5, 25) {
		t.Error("expected contained")
	}
	if iv.ContainedIn(12, 25) {
		t.Error("expected not contained (left overhang)")
	}
	if iv.ContainedIn(5, 18) {
		t.Error("expected not contained (right overhang)")
	}
}

func TestTickSeconds(t *testing.T) {
	tk := FromSeconds(30)
	if tk != 30*PerSecond {
		t.Errorf("FromSeconds(30) = %d, want %d", tk, 30*PerSecond)
	}
	if got := tk.Seconds(); got != 30 {
		t.Errorf("Seconds() = %v, want 30", got)
	}
	if got := tk.Minutes(); got != 0.5 {
		t.Errorf("Minutes() = %v, want 0.5", got)
	}
}

func TestClockTimeAdvance(t *testing.T) {
	ct := ClockTime{H: 23, M: 59, S: 50}
	adv := ct.AdvanceSeconds(20)
	if adv.H != 0 || adv.M != 0 || adv.S != 10 {
		t.Errorf("AdvanceSeconds wrap = %v, want 00:00:10", adv)
	}
}

func TestClockTimeDiff(t *testing.T) {
	a := ClockTime{H: 23, M: 0, S: 0}
	b := ClockTime{H: 1, M: 0, S: 0}
	d := a.Diff(b)
	if d != 2*3600 {
		t.Errorf("Diff across midnight = %v, want 7200", d)
	}
}

func TestClockTimeMidpoint(t *testing.T) {
	a := ClockTime{H: 22, M: 0, S: 0}
	b := ClockTime{H: 2, M: 0, S: 0}
	mp := a.Midpoint(b)
	if mp.H != 0 || mp.M != 0 {
		t.Errorf("Midpoint = %v, want ~00:00:00", mp)
	}
}
