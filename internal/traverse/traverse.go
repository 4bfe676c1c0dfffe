// Package traverse implements the pixel-ordering strategies that bind
// emitted code-byte bits to pixel positions (§4.E).
package traverse

import "github.com/deepteams/stego/internal/rng"

// Point is a pixel coordinate.
type Point struct {
	X, Y uint32
}

// Dimensions is an image's (width, height) in pixels.
type Dimensions struct {
	W, H uint32
}

// Traverser produces a pseudo-random (or quasi-random) pixel ordering.
// Encode and decode must call Next identically, in lockstep, starting
// from the same position and seed, for a round trip to hold.
type Traverser interface {
	// Next returns the index-th pixel position, given the previous
	// returned position pos (ignored by stateless strategies) and the
	// image dimensions. ok is false once the traversal is exhausted.
	Next(pos Point, dim Dimensions, index uint64) (Point, bool)
}

// StartPosition is the fixed traversal origin used by every strategy
// (§4.E).
var StartPosition = Point{X: 50, Y: 50}

// Modulo is the stride-based traverser. It is deterministic and visits
// every pixel only when gcd(19, w) = 1 and gcd(29, h) = 1; for other
// dimensions it visits a smaller orbit. Callers must only use it on
// dimensions satisfying that coprimality.
type Modulo struct{}

// NewModulo returns the modulo-stride traverser.
func NewModulo() Modulo { return Modulo{} }

// Next implements Traverser.
//
// §9 open question (a): the `index mod w == 0 -> x++` adjustment is
// unexplained in the source and preserved bit-exactly. Callers step index
// by 1 per bit, so this fires once every w calls -- a deliberate quirk,
// not a bug to "fix".
func (Modulo) Next(pos Point, dim Dimensions, index uint64) (Point, bool) {
	x, y := pos.X, pos.Y
	if index%uint64(dim.W) == 0 {
		x++
	}
	x = (x + 19) % dim.W
	y = (y + 29) % dim.H
	return Point{X: x, Y: y}, true
}

// Shuffled is the seeded-permutation traverser: a fixed random
// permutation of 0..pixelCount, computed once at construction and
// addressed directly by index.
type Shuffled struct {
	indices []int
	w       uint32
}

// NewShuffled builds a Shuffled traverser over pixelCount pixels of width
// w, using seed to drive the Fisher-Yates shuffle.
func NewShuffled(pixelCount int, w uint32, seed uint64) *Shuffled {
	indices := make([]int, pixelCount)
	for i := range indices {
		indices[i] = i
	}
	rng.New(seed).ShuffleInts(indices)
	return &Shuffled{indices: indices, w: w}
}

// Next implements Traverser; pos and dim.H are unused since the shuffled
// order is fully determined by the precomputed permutation and width.
func (s *Shuffled) Next(_ Point, _ Dimensions, index uint64) (Point, bool) {
	if index >= uint64(len(s.indices)) {
		return Point{}, false
	}
	k := uint32(s.indices[index])
	return Point{X: k % s.w, Y: k / s.w}, true
}
