package search

import "github.com/deepteams/stego/internal/weight"

// FindBestEncodingParallel behaves exactly like FindBestEncoding but
// expands each step's frontier across a worker pool (see expandConcurrent)
// once the frontier is large enough to benefit. Output is identical to
// FindBestEncoding for the same inputs regardless of GOMAXPROCS (§5).
func (t *Tree) FindBestEncodingParallel(message []byte, probabilities []float32, capacity int, freedomBits uint8) []byte {
	t.arena = t.arena[:0]
	br := bitReader{data: message}

	frontier := []Node{{ParentIndex: noParent, EncodedByte: 0, State: 0, Weight: 0}}
	maxWeight := float32(1.0)

	for step := 0; step < capacity; step++ {
		w := weight.ForStep(probabilities, step)
		template := readTemplate(&br, freedomBits)

		frontier = t.expandConcurrent(frontier, &w, maxWeight, template, freedomBits)
		if len(frontier) == 0 {
			return nil
		}
		maxWeight, _ = pruneThreshold(frontier, freedomBits)
	}

	return t.reconstructBest(frontier, capacity)
}
