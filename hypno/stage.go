// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hypno implements the hypnogram analyzer: stage-vector
// edits, sleep-architecture statistics, cycle detection, transition
// matrices, flanking/density metrics, LZW complexity, and derived
// annotation emission, grounded on sleep_stage_t / hypnogram_t in the
// original implementation.
package hypno

import "strings"

// Stage is one epoch's sleep-stage code.
type Stage int

const (
	Unscored Stage = iota
	Wake
	N1
	N2
	N3
	N4
	REM
	LightsOn
	Unknown
	Gap
)

func (s Stage) String() string {
	switch s {
	case Wake:
		return "W"
	case N1:
		return "N1"
	case N2:
		return "N2"
	case N3:
		return "N3"
	case N4:
		return "N4"
	case REM:
		return "R"
	case LightsOn:
		return "L"
	case Unknown:
		return "?"
	case Gap:
		return "Gap"
	default:
		return "."
	}
}

// ParseStage maps a canonical or aliased sleep-stage label (spec §6:
// "W, N1, N2, N3, NREM4/N4, R, L, ?", aliases mapped
// case-insensitively) to a Stage, defaulting to Unknown for anything
// unrecognized.
func ParseStage(label string) Stage {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "W", "WAKE":
		return Wake
	case "N1", "S1", "STAGE1":
		return N1
	case "N2", "S2", "STAGE2":
		return N2
	case "N3", "S3", "STAGE3":
		return N3
	case "N4", "NREM4", "S4", "STAGE4":
		return N4
	case "R", "REM", "STAGER":
		return REM
	case "L", "LIGHTS", "LIGHTS_ON":
		return LightsOn
	case "?":
		return Unknown
	case "UNSCORED":
		return Unscored
	default:
		return Unknown
	}
}

// IsSleep reports whether s counts toward total sleep time.
func (s Stage) IsSleep() bool {
	switch s {
	case N1, N2, N3, N4, REM:
		return true
	default:
		return false
	}
}

// fiveClass collapses N4 into N3 (AASM 5-stage scoring) and returns
// every other code unchanged.
func (s Stage) fiveClass() Stage {
	if s == N4 {
		return N3
	}
	return s
}

// threeClass collapses N1..N4 to a single NREM code, used by the
// 3-class transition matrix and LZW variant.
const nrem3 Stage = 100

func (s Stage) threeClass() Stage {
	switch s.fiveClass() {
	case N1, N2, N3:
		return nrem3
	default:
		return s
	}
}

// lzwSymbol5 maps a 5-class stage to a single rune for LZW encoding
// (spec §4.5 "Encode stages as characters (5-class A-E ...)").
func lzwSymbol5(s Stage) byte {
	switch s.fiveClass() {
	case Wake:
		return 'A'
	case N1:
		return 'B'
	case N2:
		return 'C'
	case N3:
		return 'D'
	case REM:
		return 'E'
	default:
		return 'X'
	}
}

func lzwSymbol3(s Stage) byte {
	switch s.threeClass() {
	case Wake:
		return 'A'
	case nrem3:
		return 'B'
	case REM:
		return 'C'
	default:
		return 'X'
	}
}
