// Package weight turns the per-pixel probability model derived from the
// cover image into per-code-byte costs the beam search minimizes.
package weight

import "math"

// ByteWeights holds the negative-log-likelihood cost of every possible
// code-byte value (0..256) for one encoding step.
type ByteWeights [256]float32

// ForStep computes W_s for encoding step s from the probability vector p.
// p must have at least 8*s+8 elements; callers derive p with a ten-slot
// tail precisely so this never indexes past the end (§4.F, §9 note b).
//
// For each of the 8 bit positions i (LSB-first) at p[8*s+i]:
//
//	zero[i] = -ln(1 - p[8*s+i])   // cost of bit_i(v) == 0
//	one[i]  = -ln(p[8*s+i])       // cost of bit_i(v) == 1
//
// W_s[v] sums the 8 per-bit costs selected by v's bits.
func ForStep(p []float32, s int) ByteWeights {
	var zero, one [8]float32
	base := 8 * s
	for i := 0; i < 8; i++ {
		pi := float64(p[base+i])
		zero[i] = float32(-math.Log(1 - pi))
		one[i] = float32(-math.Log(pi))
	}

	var w ByteWeights
	for v := 0; v < 256; v++ {
		var sum float32
		for i := 0; i < 8; i++ {
			if v&(1<<uint(i)) == 0 {
				sum += zero[i]
			} else {
				sum += one[i]
			}
		}
		w[v] = sum
	}
	return w
}
