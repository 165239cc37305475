// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tick provides the rational clock and half-open interval
// primitives that the timeline and annotation store are built on.
//
// A Tick is an integer count of 1e-9 second units. All interval
// arithmetic in Luna is performed in ticks so that epoch and
// annotation boundaries never drift under repeated floating point
// operations.
package tick

import "fmt"

// PerSecond is the number of ticks in one second.
const PerSecond Tick = 1_000_000_000

// Tick is a signed count of 1e-9 second units.
type Tick int64

// FromSeconds converts a floating point second count to a Tick,
// rounding to the nearest tick.
func FromSeconds(s float64) Tick {
	return Tick(s*float64(PerSecond) + 0.5)
}

// Seconds returns t as a floating point number of seconds.
func (t Tick) Seconds() float64 {
	return float64(t) / float64(PerSecond)
}

// Minutes returns t as a floating point number of minutes.
func (t Tick) Minutes() float64 {
	return t.Seconds() / 60
}

// Interval is a half-open span [Start, Stop) of ticks. Start == Stop
// denotes a zero-duration change-point; Stop < Start is invalid.
type Interval struct {
	Start, Stop Tick
}

// NewInterval returns an Interval spanning [start, stop).
func NewInterval(start, stop Tick) Interval {
	return Interval{Start: start, Stop: stop}
}

// Duration returns the length of the interval in ticks. A point
// interval has zero duration.
func (iv Interval) Duration() Tick {
	return iv.Stop - iv.Start
}

// Valid reports whether iv is well-formed (Stop >= Start).
func (iv Interval) Valid() bool {
	return iv.Stop >= iv.Start
}

// IsPoint reports whether iv is a zero-duration change-point.
func (iv Interval) IsPoint() bool {
	return iv.Start == iv.Stop
}

// Overlaps reports whether iv overlaps the query window [qStart, qEnd).
// A non-degenerate interval overlaps iff Start < qEnd && Stop > qStart.
// A point interval overlaps iff qStart <= Start < qEnd.
func (iv Interval) Overlaps(qStart, qEnd Tick) bool {
	if iv.IsPoint() {
		return qStart <= iv.Start && iv.Start < qEnd
	}
	return iv.Start < qEnd && iv.Stop > qStart
}

// ContainedIn reports whether iv is completely contained within
// [qStart, qEnd).
func (iv Interval) ContainedIn(qStart, qEnd Tick) bool {
	if iv.IsPoint() {
		return qStart <= iv.Start && iv.Start < qEnd
	}
	return qStart <= iv.Start && iv.Stop <= qEnd
}

// Less reports whether iv sorts before rhs by (Start, Stop).
func (iv Interval) Less(rhs Interval) bool {
	if iv.Start != rhs.Start {
		return iv.Start < rhs.Start
	}
	return iv.Stop < rhs.Stop
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.Stop)
}

// ClockTime is a wall-clock time of day expressed as hours, minutes
// and seconds, with seconds allowed a fractional component.
type ClockTime struct {
	H, M int
	S    float64
}

// Hours returns t as a floating point hour-of-day value.
func (t ClockTime) Hours() float64 {
	return float64(t.H) + float64(t.M)/60 + t.S/3600
}

// AdvanceSeconds returns the ClockTime obtained by advancing t by s
// seconds, wrapping at 24 hours.
func (t ClockTime) AdvanceSeconds(s float64) ClockTime {
	total := t.H*3600 + t.M*60
	totalF := float64(total) + t.S + s
	const day = 24 * 3600.0
	for totalF < 0 {
		totalF += day
	}
	for totalF >= day {
		totalF -= day
	}
	h := int(totalF / 3600)
	rem := totalF - float64(h)*3600
	m := int(rem / 60)
	sec := rem - float64(m)*60
	return ClockTime{H: h, M: m, S: sec}
}

// Midpoint returns the clock time half way between t and u, using the
// shortest arc between the two times (wrapping through midnight when
// that arc is shorter).
func (t ClockTime) Midpoint(u ClockTime) ClockTime {
	d := u.diffSeconds(t, 12*3600)
	return t.AdvanceSeconds(d / 2)
}

// Diff returns the signed number of seconds from t to u, taking the
// shortest arc around a 24 hour clock when no date information is
// available (the default assumption is a 12 hour maximum arc, per
// spec §3 "default 12-hour shortest arc when date is absent").
func (t ClockTime) Diff(u ClockTime) float64 {
	return u.diffSeconds(t, 12*3600)
}

// diffSeconds returns the signed number of seconds from base to t
// along the shorter arc around a 24 hour clock (magnitude at most 12
// hours); maxArc is not consulted.
func (t ClockTime) diffSeconds(base ClockTime, maxArc float64) float64 {
	a := t.secondsOfDay() - base.secondsOfDay()
	const day = 24 * 3600.0
	for a > day/2 {
		a -= day
	}
	for a < -day/2 {
		a += day
	}
	_ = maxArc
	return a
}

func (t ClockTime) secondsOfDay() float64 {
	return float64(t.H)*3600 + float64(t.M)*60 + t.S
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%06.3f", t.H, t.M, t.S)
}
