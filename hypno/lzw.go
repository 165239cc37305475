// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypno

// lzwCompress is the textbook dictionary-building LZW compressor,
// grounded on lzw_t::compress in the original implementation (which
// runs LZW over the stage-vector-as-string recoding).
func lzwCompress(input string) []int {
	dict := make(map[string]int, 256)
	for i := 0; i < 256; i++ {
		dict[string(rune(i))] = i
	}
	next := 256
	var w string
	var out []int
	for _, c := range input {
		wc := w + string(c)
		if _, ok := dict[wc]; ok {
			w = wc
			continue
		}
		out = append(out, dict[w])
		dict[wc] = next
		next++
		w = string(c)
	}
	if w != "" {
		out = append(out, dict[w])
	}
	return out
}

// LZWComplexity encodes the current stage vector as a character
// string (5-class A-E and a 3-class A-C variant) and returns the LZW
// compression ratio normalized against the ratio of a constant
// (all-identical) sequence of the same length, making the result
// scale-invariant (spec §4.5).
type LZWComplexity struct {
	Ratio5, Ratio3 float64
}

// ComputeLZW computes LZWComplexity for the current edited stage
// vector.
func (h *Hypnogram) ComputeLZW() LZWComplexity {
	n := len(h.Stages)
	if n == 0 {
		return LZWComplexity{}
	}
	s5 := make([]byte, n)
	s3 := make([]byte, n)
	for i, s := range h.Stages {
		s5[i] = lzwSymbol5(s)
		s3[i] = lzwSymbol3(s)
	}

	ratio := func(seq []byte) float64 {
		compressed := len(lzwCompress(string(seq)))
		constSeq := make([]byte, len(seq))
		for i := range constSeq {
			constSeq[i] = seq[0]
		}
		minCompressed := len(lzwCompress(string(constSeq)))
		if minCompressed == 0 {
			return 0
		}
		return float64(compressed) / float64(minCompressed)
	}

	return LZWComplexity{Ratio5: ratio(s5), Ratio3: ratio(s3)}
}
