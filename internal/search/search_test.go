package search

import (
	"testing"

	"github.com/deepteams/stego/internal/kt"
	"github.com/deepteams/stego/internal/weight"
)

func uniformProbabilities(n int, p float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestFindBestEncodingLength(t *testing.T) {
	codec := kt.NewCodec(5)
	probs := uniformProbabilities(8*4+10, 0.5)

	tree := NewTree(codec)
	out := tree.FindBestEncoding([]byte("A"), probs, 4, 2)

	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
}

func bitReverseByte(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r |= ((b >> uint(i)) & 1) << uint(7-i)
	}
	return r
}

func TestFindBestEncodingFreedomZeroIsStraightKT(t *testing.T) {
	// §8 boundary: with F=0 there are no freedom bits, so the beam
	// degenerates to a single path: the plain KT stream of the message,
	// laid into each byte template MSB-first from an LSB-first message
	// read (§4.D), i.e. the straight KT encoding of the bit-reversal of
	// each message byte.
	codec := kt.NewCodec(5)
	message := []byte{0x41, 0x42, 0x43}
	probs := uniformProbabilities(8*3+10, 0.3)

	tree := NewTree(codec)
	got := tree.FindBestEncoding(message, probs, 3, 0)

	var state kt.State
	want := make([]byte, 3)
	for i, b := range message {
		var e byte
		e, state = codec.Encode(bitReverseByte(b), state)
		want[i] = e
	}

	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

// TestFindBestEncodingSeed5GoldenF2 pins the exact tie-broken output byte
// for S4: message "A" (0x41), F=2, capacity=1, uniform probabilities. With
// p=0.5 at every bit position, all 4 freedom-bit choices cost identically
// (8*-ln(0.5) regardless of byte value), so the result is decided purely by
// the "first encountered in iteration order" tie-break, i.e. the fv=0
// child of the single root node: the straight KT encoding of the template
// byte (bit 7 set from 'A's first LSB-first bit, freedom bits zeroed).
func TestFindBestEncodingSeed5GoldenF2(t *testing.T) {
	codec := kt.NewCodec(5)
	probs := uniformProbabilities(8*1+10, 0.5)

	tree := NewTree(codec)
	got := tree.FindBestEncoding([]byte{0x41}, probs, 1, 2)

	want := []byte{0x32}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("FindBestEncoding(0x41, F=2, cap=1, uniform) = %#v, want %#v", got, want)
	}
}

func TestFindBestEncodingDeterministic(t *testing.T) {
	codec := kt.NewCodec(5)
	probs := uniformProbabilities(8*10+10, 0.42)
	message := []byte("hello")

	out1 := NewTree(codec).FindBestEncoding(message, probs, 10, 2)
	out2 := NewTree(codec).FindBestEncoding(message, probs, 10, 2)

	if len(out1) != len(out2) {
		t.Fatalf("length mismatch: %d vs %d", len(out1), len(out2))
	}
	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("byte %d differs across runs: %d vs %d", i, out1[i], out2[i])
		}
	}
}

func TestFindBestEncodingParallelMatchesSequential(t *testing.T) {
	codec := kt.NewCodec(5)
	probs := uniformProbabilities(8*40+10, 0.37)
	message := []byte("the quick brown fox jumps over the lazy dog")

	seq := NewTree(codec).FindBestEncoding(message, probs, 40, 2)
	par := NewTree(codec).FindBestEncodingParallel(message, probs, 40, 2)

	if len(seq) != len(par) {
		t.Fatalf("length mismatch: sequential %d, parallel %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("byte %d differs: sequential %d, parallel %d", i, seq[i], par[i])
		}
	}
}

func TestReadTemplateFromMessageBits(t *testing.T) {
	// 'A' = 0x41 = 0100 0001, LSB-first bits: 1,0,0,0,0,0,1,0 (S4).
	br := bitReader{data: []byte{0x41}}
	template := readTemplate(&br, 2)

	// With F=2, positions 7..2 get bits 1,0,0,0,0,0 in that order:
	// bit7=1, bit6=0, bit5=0, bit4=0, bit3=0, bit2=0.
	want := byte(1 << 7)
	if template != want {
		t.Fatalf("template = %08b, want %08b", template, want)
	}
}

func TestReadTemplateShortMessagePadsZero(t *testing.T) {
	br := bitReader{data: []byte{}}
	template := readTemplate(&br, 2)
	if template != 0 {
		t.Fatalf("template = %08b, want 0 for exhausted message", template)
	}
}

func TestPruneThresholdWithinBudgetNoPruning(t *testing.T) {
	nodes := make([]Node, 10)
	for i := range nodes {
		nodes[i].Weight = float32(i)
	}
	maxW, minW := pruneThreshold(nodes, 2)
	if maxW != 9 || minW != 0 {
		t.Fatalf("maxW=%v minW=%v, want 9 and 0 (no pruning under budget)", maxW, minW)
	}
}

func TestPruneThresholdMinNonDecreasingAcrossSteps(t *testing.T) {
	// Invariant 5: per-step weights are >= 0, so min_weight across steps of
	// a real search must be non-decreasing.
	codec := kt.NewCodec(5)
	probs := uniformProbabilities(8*20+10, 0.2)
	tree := NewTree(codec)

	message := make([]byte, 20)
	for i := range message {
		message[i] = byte(i * 37)
	}

	frontier := []Node{{ParentIndex: noParent}}
	maxWeight := float32(1.0)
	prevMin := float32(0.0)
	br := bitReader{data: message}

	for step := 0; step < 20; step++ {
		w := weight.ForStep(probs, step)
		template := readTemplate(&br, 2)
		frontier = tree.expand(frontier, &w, maxWeight, template, 2)
		min := minOf(frontier)
		maxWeight, _ = pruneThreshold(frontier, 2)
		if min < prevMin {
			t.Fatalf("step %d: min weight decreased from %v to %v", step, prevMin, min)
		}
		prevMin = min
	}
}

func minOf(nodes []Node) float32 {
	m := nodes[0].Weight
	for _, n := range nodes[1:] {
		if n.Weight < m {
			m = n.Weight
		}
	}
	return m
}
