// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timeline owns the mapping between sample index, tick, and
// epoch index for a single recording, plus per-channel epoch masking
// (CHEP).
package timeline

import (
	"fmt"

	"github.com/biogo/store/step"

	"github.com/kortschak/luna/tick"
)

// Record describes one contiguous block of a (possibly
// discontinuous) recording, grounded on the timeline_t record-block
// description in spec §4.3.
type Record struct {
	Start tick.Tick
	Dur   tick.Tick
}

// Timeline owns the sample-rate-per-channel table, the ordered list
// of record blocks, and the epoch layout derived from them.
type Timeline struct {
	Records []Record
	rates   map[string]float64
	samples map[string][]float64

	epochLen tick.Tick
	epochInc tick.Tick
	// alignedOrOffset is true once EPOCH align/offset has been
	// applied and is reported by AlignedOrOffset; the HYPNO command
	// does not check it.
	alignedOrOffset bool

	epochs    []tick.Interval
	wholeMask []bool // per-epoch whole-epoch exclusion
	chep      map[string]*step.Vector

	cursor int
}

// New returns a Timeline with no channels or epochs defined.
func New() *Timeline {
	return &Timeline{
		rates:   make(map[string]float64),
		samples: make(map[string][]float64),
		chep:    make(map[string]*step.Vector),
	}
}

// SetRate fixes the sampling rate for a channel; rates are fixed at
// load and never changed afterward (spec §4.3).
func (t *Timeline) SetRate(channel string, hz float64) { t.rates[channel] = hz }

// Rate returns the sampling rate for channel, or 0 if unknown.
func (t *Timeline) Rate(channel string) float64 { return t.rates[channel] }

// SetChannel installs (or replaces) the full sample trace for channel,
// recorded at the rate already fixed by SetRate. This stands in for
// the EDF loader's slice operation (spec §6), which is consumed here
// as an opaque external interface.
func (t *Timeline) SetChannel(channel string, data []float64) {
	t.samples[channel] = data
}

// Channel returns the full sample trace for channel, or false if no
// trace has been loaded.
func (t *Timeline) Channel(channel string) ([]float64, bool) {
	v, ok := t.samples[channel]
	return v, ok
}

// HasChannel reports whether channel has a loaded sample trace.
func (t *Timeline) HasChannel(channel string) bool {
	_, ok := t.samples[channel]
	return ok
}

// Slice returns the samples of channel falling within iv, using the
// channel's fixed sampling rate to convert tick offsets to sample
// indices.
func (t *Timeline) Slice(channel string, iv tick.Interval) ([]float64, error) {
	data, ok := t.samples[channel]
	if !ok {
		return nil, fmt.Errorf("timeline: no channel %q", channel)
	}
	hz, ok := t.rates[channel]
	if !ok || hz <= 0 {
		return nil, fmt.Errorf("timeline: no sampling rate for channel %q", channel)
	}
	start := int(iv.Start.Seconds() * hz)
	stop := int(iv.Stop.Seconds() * hz)
	if start < 0 {
		start = 0
	}
	if stop > len(data) {
		stop = len(data)
	}
	if start >= stop {
		return nil, nil
	}
	return data[start:stop], nil
}

// SetEpochs defines a uniform epoch layout of length/increment ticks
// over the recording's total span, one epoch per Record independently
// (queries never straddle a record gap).
func (t *Timeline) SetEpochs(length, inc tick.Tick) {
	t.epochLen, t.epochInc = length, inc
	t.epochs = t.epochs[:0]
	for _, r := range t.Records {
		for start := r.Start; start+length <= r.Start+r.Dur; start += inc {
			t.epochs = append(t.epochs, tick.NewInterval(start, start+length))
		}
	}
	t.wholeMask = make([]bool, len(t.epochs))
}

// NumEpochs returns the number of defined epochs.
func (t *Timeline) NumEpochs() int { return len(t.epochs) }

// Epoch returns the Interval for the i'th (0-based) epoch.
func (t *Timeline) Epoch(i int) tick.Interval { return t.epochs[i] }

// DisplayEpoch returns the 1-based user-visible epoch number for
// internal index i (spec §4.3: "may skip internal housekeeping" — no
// housekeeping epochs exist in this implementation, so this is i+1).
func (t *Timeline) DisplayEpoch(i int) int { return i + 1 }

// SetEpochMask marks epoch i as wholly excluded (not just per-channel
// masked).
func (t *Timeline) SetEpochMask(i int, excluded bool) {
	if i >= 0 && i < len(t.wholeMask) {
		t.wholeMask[i] = excluded
	}
}

// FirstEpoch rewinds the enumeration cursor to before the first
// epoch.
func (t *Timeline) FirstEpoch() { t.cursor = -1 }

// NextEpoch returns the next unmasked epoch index, or -1 when
// exhausted, matching timeline_t::next_epoch.
func (t *Timeline) NextEpoch() int {
	for t.cursor++; t.cursor < len(t.epochs); t.cursor++ {
		if !t.wholeMask[t.cursor] {
			return t.cursor
		}
	}
	return -1
}

type chepState struct{ masked bool }

func (c chepState) Equal(e step.Equaler) bool { return c == e.(chepState) }

// chepVector returns (creating if necessary) the CHEP step.Vector for
// channel, spanning the whole epoch index range.
func (t *Timeline) chepVector(channel string) (*step.Vector, error) {
	v, ok := t.chep[channel]
	if ok {
		return v, nil
	}
	v, err := step.New(0, len(t.epochs), chepState{})
	if err != nil {
		return nil, fmt.Errorf("timeline: chep init for %s: %w", channel, err)
	}
	v.Relaxed = true
	t.chep[channel] = v
	return v, nil
}

// SetCHEPMask marks epoch as masked for channel.
func (t *Timeline) SetCHEPMask(epoch int, channel string) error {
	v, err := t.chepVector(channel)
	if err != nil {
		return err
	}
	return v.ApplyRange(epoch, epoch+1, func(step.Equaler) step.Equaler { return chepState{masked: true} })
}

// Masked reports whether epoch is excluded for channel, either via
// the whole-epoch mask (which takes precedence) or the per-channel
// CHEP mask.
func (t *Timeline) Masked(epoch int, channel string) bool {
	if epoch >= 0 && epoch < len(t.wholeMask) && t.wholeMask[epoch] {
		return true
	}
	v, ok := t.chep[channel]
	if !ok {
		return false
	}
	masked := false
	v.Do(func(start, end int, e step.Equaler) {
		if epoch >= start && epoch < end && e.(chepState).masked {
			masked = true
		}
	})
	return masked
}

// ClearCHEPMask discards every per-channel CHEP mask.
func (t *Timeline) ClearCHEPMask() { t.chep = make(map[string]*step.Vector) }

// CHEPCopy is an opaque snapshot of the CHEP masks, returned by
// MakeCHEPCopy and consumed by MergeCHEPMask.
type CHEPCopy map[string]*step.Vector

// MakeCHEPCopy snapshots the current CHEP masks for later merge.
func (t *Timeline) MakeCHEPCopy() CHEPCopy {
	cp := make(CHEPCopy, len(t.chep))
	for k, v := range t.chep {
		cp[k] = v
	}
	return cp
}

// MergeCHEPMask ORs a previously saved CHEPCopy back into the current
// mask set.
func (t *Timeline) MergeCHEPMask(prev CHEPCopy) error {
	for channel, pv := range prev {
		v, err := t.chepVector(channel)
		if err != nil {
			return err
		}
		var mergeErr error
		pv.Do(func(start, end int, e step.Equaler) {
			if mergeErr != nil || !e.(chepState).masked {
				return
			}
			mergeErr = v.ApplyRange(start, end, func(step.Equaler) step.Equaler {
				return chepState{masked: true}
			})
		})
		if mergeErr != nil {
			return mergeErr
		}
	}
	return nil
}

// Align snaps every epoch boundary to the nearest multiple of cadence
// ticks and marks the layout as aligned (spec §4.3).
func (t *Timeline) Align(cadence tick.Tick) {
	for i, e := range t.epochs {
		start := roundToMultiple(e.Start, cadence)
		t.epochs[i] = tick.NewInterval(start, start+t.epochLen)
	}
	t.alignedOrOffset = true
}

// Offset shifts every epoch start by delta ticks and marks the layout
// as offset (spec §4.3).
func (t *Timeline) Offset(delta tick.Tick) {
	for i, e := range t.epochs {
		t.epochs[i] = tick.NewInterval(e.Start+delta, e.Stop+delta)
	}
	t.alignedOrOffset = true
}

// AlignedOrOffset reports whether Align or Offset has been applied.
func (t *Timeline) AlignedOrOffset() bool { return t.alignedOrOffset }

func roundToMultiple(v, m tick.Tick) tick.Tick {
	if m == 0 {
		return v
	}
	half := m / 2
	return ((v + half) / m) * m
}

// SampleTick returns the tick offset of the idx'th sample of channel
// given its fixed sampling rate, for converting sample-index runs back
// into annotation-ready intervals.
func (t *Timeline) SampleTick(channel string, idx int) (tick.Tick, error) {
	hz, ok := t.rates[channel]
	if !ok || hz <= 0 {
		return 0, fmt.Errorf("timeline: no sampling rate for channel %q", channel)
	}
	return tick.FromSeconds(float64(idx) / hz), nil
}

// TickToEpoch returns the index of the epoch containing tk, or -1.
func (t *Timeline) TickToEpoch(tk tick.Tick) int {
	for i, e := range t.epochs {
		if e.Overlaps(tk, tk+1) {
			return i
		}
	}
	return -1
}
