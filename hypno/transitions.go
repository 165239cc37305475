// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

import (
	"bytes"
	"fmt"

	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

// stageNode labels a transition-graph node with its stage name so the
// exported DOT graph shows "W", "N2", etc. rather than bare integer
// IDs, matching the node/DOTID pattern used for the inter-annotation
// disagreement graph export.
type stageNode struct {
	id   int64
	name string
}

func (n stageNode) ID() int64     { return n.id }
func (n stageNode) DOTID() string { return n.name }

// fiveClasses/threeClasses fix the row/column ordering of the
// transition matrices.
var fiveClasses = []Stage{Wake, N1, N2, N3, REM}
var threeClassLabels = []string{"W", "NR", "R"}

func classIndex5(s Stage) int {
	switch s.fiveClass() {
	case Wake:
		return 0
	case N1:
		return 1
	case N2:
		return 2
	case N3:
		return 3
	case REM:
		return 4
	default:
		return -1
	}
}

func classIndex3(s Stage) int {
	switch s.threeClass() {
	case Wake:
		return 0
	case nrem3:
		return 1
	case REM:
		return 2
	default:
		return -1
	}
}

// Transitions holds adjacency counts and derived probabilities for
// both the 5-class and 3-class (collapsed NREM) stage alphabets,
// plus the Sleep Fragmentation/Transition Indices (spec §4.5).
type Transitions struct {
	Counts5 *mat.Dense // 5x5 raw adjacency counts
	Joint5  *mat.Dense // counts / total transitions
	Cond5   *mat.Dense // row-normalized (P(next | current))

	Counts3 *mat.Dense
	Joint3  *mat.Dense
	Cond3   *mat.Dense

	SFI float64 // #(sleep->W) / TST (minutes)
	STI float64 // #(sleep->sleep) / TST
	TI3 float64 // 3-class sleep->sleep index
}

// ComputeTransitions builds the transition matrices over the current
// edited stage vector.
func (h *Hypnogram) ComputeTransitions() Transitions {
	c5 := mat.NewDense(5, 5, nil)
	c3 := mat.NewDense(3, 3, nil)

	var sleepToWake, sleepToSleep, total int
	for i := 0; i+1 < len(h.Stages); i++ {
		a, b := h.Stages[i], h.Stages[i+1]
		if ai, bi := classIndex5(a), classIndex5(b); ai >= 0 && bi >= 0 {
			c5.Set(ai, bi, c5.At(ai, bi)+1)
		}
		if ai, bi := classIndex3(a), classIndex3(b); ai >= 0 && bi >= 0 {
			c3.Set(ai, bi, c3.At(ai, bi)+1)
		}
		if a.IsSleep() {
			total++
			if b == Wake {
				sleepToWake++
			}
			if b.IsSleep() {
				sleepToSleep++
			}
		}
	}

	var t Transitions
	t.Counts5, t.Counts3 = c5, c3
	t.Joint5, t.Cond5 = normalize(c5)
	t.Joint3, t.Cond3 = normalize(c3)

	tstMin := float64(total) * h.EpochMins
	if tstMin > 0 {
		t.SFI = float64(sleepToWake) / tstMin
		t.STI = float64(sleepToSleep) / tstMin
		t.TI3 = t.STI
	}
	return t
}

func normalize(counts *mat.Dense) (joint, cond *mat.Dense) {
	r, c := counts.Dims()
	joint = mat.NewDense(r, c, nil)
	cond = mat.NewDense(r, c, nil)
	var grand float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			grand += counts.At(i, j)
		}
	}
	for i := 0; i < r; i++ {
		rowSum := mat.Sum(counts.RowView(i))
		for j := 0; j < c; j++ {
			v := counts.At(i, j)
			if grand > 0 {
				joint.Set(i, j, v/grand)
			}
			if rowSum > 0 {
				cond.Set(i, j, v/rowSum)
			}
		}
	}
	return joint, cond
}

// TransitionDOT renders the 5-class transition graph (nodes W/N1/N2/
// N3/R, edges weighted by conditional probability) as Graphviz DOT,
// grounded on cmpint's DOT export of inter-annotation disagreement
// graphs.
func TransitionDOT(t Transitions) (string, error) {
	g := simple.NewWeightedDirectedGraph(0, 0)
	labels := []string{"W", "N1", "N2", "N3", "R"}
	nodes := make([]stageNode, len(labels))
	for i, l := range labels {
		nodes[i] = stageNode{id: int64(i), name: l}
		g.AddNode(nodes[i])
	}
	r, c := t.Cond5.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w := t.Cond5.At(i, j)
			if w <= 0 {
				continue
			}
			g.SetWeightedEdge(g.NewWeightedEdge(nodes[i], nodes[j], w))
		}
	}
	data, err := dot.Marshal(g, "stage_transitions", "", "  ")
	if err != nil {
		return "", fmt.Errorf("hypno: marshal transition graph: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(data)
	return buf.String(), nil
}

// TransitionDOT3 renders the 3-class (W/NR/R) collapsed transition
// graph as Graphviz DOT.
func TransitionDOT3(t Transitions) (string, error) {
	g := simple.NewWeightedDirectedGraph(0, 0)
	nodes := make([]stageNode, len(threeClassLabels))
	for i, l := range threeClassLabels {
		nodes[i] = stageNode{id: int64(i), name: l}
		g.AddNode(nodes[i])
	}
	r, c := t.Cond3.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w := t.Cond3.At(i, j)
			if w <= 0 {
				continue
			}
			g.SetWeightedEdge(g.NewWeightedEdge(nodes[i], nodes[j], w))
		}
	}
	data, err := dot.Marshal(g, "stage_transitions_3class", "", "  ")
	if err != nil {
		return "", fmt.Errorf("hypno: marshal 3-class transition graph: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(data)
	return buf.String(), nil
}
