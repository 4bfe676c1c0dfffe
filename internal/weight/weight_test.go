package weight

import (
	"math"
	"testing"
)

func TestForStepUniformHalf(t *testing.T) {
	// S3: p[0..8] all 0.5 => W_0[v] = 8*ln(2) for every v.
	p := make([]float32, 8)
	for i := range p {
		p[i] = 0.5
	}
	w := ForStep(p, 0)

	want := float32(8 * math.Ln2)
	for v := 0; v < 256; v++ {
		if diff := math.Abs(float64(w[v] - want)); diff > 1e-4 {
			t.Fatalf("W_0[%d] = %v, want %v", v, w[v], want)
		}
	}
}

func TestForStepDeterministic(t *testing.T) {
	p := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	w1 := ForStep(p, 0)
	w2 := ForStep(p, 0)
	if w1 != w2 {
		t.Fatalf("ForStep is not deterministic for identical inputs")
	}
}

func TestForStepEqualProbabilitiesOrderInvariant(t *testing.T) {
	// Invariant 4: swapping two equal probabilities does not change totals.
	p1 := []float32{0.3, 0.3, 0.5, 0.5, 0.7, 0.7, 0.9, 0.9}
	p2 := []float32{0.3, 0.3, 0.5, 0.5, 0.7, 0.7, 0.9, 0.9}
	p2[2], p2[3] = p2[3], p2[2]

	w1 := ForStep(p1, 0)
	w2 := ForStep(p2, 0)
	if w1 != w2 {
		t.Fatalf("swapping equal probabilities changed weights")
	}
}

func TestForStepOffsetsIntoLongerVector(t *testing.T) {
	p := make([]float32, 24)
	for i := range p {
		p[i] = 0.1 * float32(i%9+1)
	}
	w0 := ForStep(p, 0)
	w1 := ForStep(p, 1)
	w2 := ForStep(p, 2)

	// Each step should generally differ since the underlying probabilities
	// differ across the three 8-wide windows.
	if w0 == w1 && w1 == w2 {
		t.Fatalf("ForStep produced identical weights across distinct steps")
	}
}

func TestForStepMonotonicBias(t *testing.T) {
	// A byte of all-zero bits should be cheaper than all-one bits when every
	// bit is more likely to be 0 than 1.
	p := []float32{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	w := ForStep(p, 0)
	if w[0x00] >= w[0xFF] {
		t.Fatalf("W[0x00] = %v should be cheaper than W[0xFF] = %v when p is low", w[0x00], w[0xFF])
	}
}
