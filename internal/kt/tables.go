// Package kt implements the KT codec: a randomized bijective byte-at-a-time
// automaton built from eight stacked random permutations of 0..256 packed
// into a 64-bit state register. It is the entropy-coding primitive the beam
// search (package search) drives to emit the stego payload.
package kt

import "github.com/deepteams/stego/internal/rng"

// BlockSize is the width, in bits, of one coded symbol.
const BlockSize = 8

// StateCount is the number of distinct byte values, 1<<BlockSize.
const StateCount = 1 << BlockSize

// Mask selects the low BlockSize bits of a machine word.
const Mask = StateCount - 1

// Tables holds the forward and reverse transition tables built from a seed.
// FWD packs eight random permutations of 0..256 into the eight bytes of
// each u64 entry (lane k holds the k-th pass's permutation); REV inverts
// only the first pass, which is the one the codec's low-byte projection
// exposes after a single encode step.
type Tables struct {
	FWD [StateCount]uint64
	REV [StateCount]uint8
}

// Build constructs the transition tables deterministically from seed.
//
// Eight independent Fisher-Yates draws build eight permutations of
// 0..256; each permutation occupies one byte-lane (pass k -> lane k) of
// FWD. REV is the inverse of pass 0 only, since the codec step leaves the
// low byte of the post-XOR state equal to the pass-0 lane of the
// pre-emission state (see Encode/Decode in codec.go).
func Build(seed uint64) *Tables {
	g := rng.New(seed)

	var t Tables
	var m uint64 = 1
	var tmp [StateCount]uint64

	for pass := 0; pass < 64/BlockSize; pass++ {
		for j := 0; j < StateCount; j++ {
			tmp[j] = uint64(j)
		}
		for j := 0; j < StateCount; j++ {
			r := g.UintN(uint64(StateCount - j))
			t.FWD[j] += m * tmp[r] // wrapping add over uint64
			if pass == 0 {
				t.REV[tmp[r]] = uint8(j)
			}
			tmp[r] = tmp[StateCount-1-j]
		}
		m *= StateCount // wrapping mul over uint64
	}
	return &t
}
