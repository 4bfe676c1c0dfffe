// Package rng implements the pseudo-random number generator used to build
// the KT codec's transition tables and the shuffled pixel traverser.
//
// It is a from-scratch Go implementation of the PCG family of generators
// (O'Neill, "PCG: A Family of Simple Fast Space-Efficient Statistically
// Good Algorithms for Random Number Generation", 2014), specifically the
// XSL-RR output permutation over a 128-bit linear congruential generator
// ("pcg64" in the taxonomy of the paper). The implementation is entirely
// self-contained: it is not required to reproduce any other PCG
// implementation's byte-for-byte output, only to be deterministic and
// reproducible across platforms for a given seed, as the encoder and
// decoder must derive identical tables and traversal orders from it.
package rng

import "math/bits"

// u128 is an unsigned 128-bit integer represented as two 64-bit halves.
type u128 struct {
	hi, lo uint64
}

// pcgMultiplier is the 128-bit LCG multiplier from the PCG reference
// implementation (pcg_engines::xsl_rr_128_64's default multiplier).
var pcgMultiplier = u128{hi: 0x2360ed051fc65da4, lo: 0x4385df649fccf645}

func add128(a, b u128) u128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi, _ := bits.Add64(a.hi, b.hi, carry)
	return u128{hi: hi, lo: lo}
}

// mul128 returns the low 128 bits of a*b.
func mul128(a, b u128) u128 {
	hi, lo := bits.Mul64(a.lo, b.lo)
	_, lo2 := bits.Mul64(a.lo, b.hi)
	_, lo3 := bits.Mul64(a.hi, b.lo)
	hi += lo2
	hi += lo3
	return u128{hi: hi, lo: lo}
}

// splitMix64 is used only to expand a single u64 seed into the generator's
// full internal state; it is never used as the generator itself.
type splitMix64 struct{ x uint64 }

func (s *splitMix64) next() uint64 {
	s.x += 0x9e3779b97f4a7c15
	z := s.x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// PCG64 is a PCG XSL-RR 128/64 generator: 128 bits of LCG state, 64-bit
// output per step.
type PCG64 struct {
	state u128
	inc   u128 // must be odd, fixed for the life of the generator
}

// New seeds a PCG64 deterministically from a single u64 seed. Identical
// seeds always produce identical output sequences.
func New(seed uint64) *PCG64 {
	sm := splitMix64{x: seed}
	g := &PCG64{
		inc: u128{hi: sm.next(), lo: sm.next() | 1},
	}
	g.state = u128{hi: sm.next(), lo: sm.next()}
	// Prime the generator the way pcg32_srandom_r does: one LCG step after
	// the initial state is set, before the first output is drawn.
	g.state = add128(mul128(g.state, pcgMultiplier), g.inc)
	return g
}

// Uint64 returns the next raw 64-bit output and advances the generator.
func (g *PCG64) Uint64() uint64 {
	g.state = add128(mul128(g.state, pcgMultiplier), g.inc)
	rot := g.state.hi >> 58 // top 6 bits of the 128-bit state
	xored := g.state.hi ^ g.state.lo
	return bits.RotateLeft64(xored, -int(rot))
}

// UintN returns a value in [0, n) by direct modulo reduction of a raw
// 64-bit draw. The codec's own table-construction algorithm (§4.A) draws
// its Fisher-Yates indices this way (`rng.next_usize() mod (256 - j)`),
// so this matches that convention rather than using a bias-corrected
// rejection sampler.
func (g *PCG64) UintN(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return g.Uint64() % n
}

// ShuffleInts performs an in-place Fisher-Yates shuffle of xs, walking
// from the end towards the front and swapping each element with one drawn
// uniformly from the remaining unshuffled prefix (inclusive).
func (g *PCG64) ShuffleInts(xs []int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := int(g.UintN(uint64(i + 1)))
		xs[i], xs[j] = xs[j], xs[i]
	}
}
