// Package search implements the beam search ("search tree") that resolves
// the KT codec's freedom bits by minimizing cumulative code-length weight
// against the cover's per-pixel probability model.
package search

import (
	"github.com/deepteams/stego/internal/kt"
	"github.com/deepteams/stego/internal/weight"
)

// maxActiveBeam and pruneBuckets are part of the search's observable
// contract (§9 note c): golden-tested output depends on these exact
// values, so they are not parameterized.
const (
	maxActiveBeam = 10_000
	pruneBuckets  = 1000
)

// noParent marks a Node with no predecessor: the synthetic root, and the
// arena entry retained for it when it is expanded.
const noParent = -1

// Node is one beam position: the byte emitted at this step, the codec
// state after emission, the cumulative path weight, and a back-pointer
// into the arena for the parent that was expanded to produce it.
type Node struct {
	ParentIndex int
	EncodedByte byte
	State       kt.State
	Weight      float32
}

// Tree owns the append-only arena of retained parents for one encode run.
// It is not safe for concurrent use by multiple encodes; construct a new
// Tree per FindBestEncoding call (or reuse one sequentially).
type Tree struct {
	codec *kt.Codec
	arena []Node
}

// NewTree returns a Tree driven by codec.
func NewTree(codec *kt.Codec) *Tree {
	return &Tree{codec: codec}
}

// FindBestEncoding runs the beam search for `capacity` steps, reading
// (8-freedomBits) message bits per step (LSB-first over message, missing
// bits treated as 0 per §4.D), and returns the winning encoded-byte
// sequence. It returns nil if the frontier collapses to empty, which the
// pipeline surfaces as a fatal EmptyFrontier error (§7); this should not
// occur for freedomBits >= 1 with well-formed inputs.
func (t *Tree) FindBestEncoding(message []byte, probabilities []float32, capacity int, freedomBits uint8) []byte {
	t.arena = t.arena[:0]
	br := bitReader{data: message}

	frontier := []Node{{ParentIndex: noParent, EncodedByte: 0, State: 0, Weight: 0}}
	maxWeight := float32(1.0)

	for step := 0; step < capacity; step++ {
		w := weight.ForStep(probabilities, step)
		template := readTemplate(&br, freedomBits)

		frontier = t.expand(frontier, &w, maxWeight, template, freedomBits)
		if len(frontier) == 0 {
			return nil
		}
		maxWeight, _ = pruneThreshold(frontier, freedomBits)
	}

	return t.reconstructBest(frontier, capacity)
}

// expand produces the next frontier: every surviving node (weight <=
// maxWeight) is retained in the arena as a potential parent, then expanded
// into 2^freedomBits children, one per freedom-bit assignment OR-ed into
// the message-bit template.
func (t *Tree) expand(prev []Node, w *weight.ByteWeights, maxWeight float32, template byte, freedomBits uint8) []Node {
	freedomCount := 1 << freedomBits
	next := make([]Node, 0, len(prev)*freedomCount)

	for _, p := range prev {
		if p.Weight > maxWeight {
			continue
		}
		parentIdx := len(t.arena)
		t.arena = append(t.arena, Node{
			ParentIndex: p.ParentIndex,
			EncodedByte: p.EncodedByte,
		})

		for fv := 0; fv < freedomCount; fv++ {
			plain := template | byte(fv)
			emitted, newState := t.codec.Encode(plain, p.State)
			next = append(next, Node{
				ParentIndex: parentIdx,
				EncodedByte: emitted,
				State:       newState,
				Weight:      p.Weight + w[emitted],
			})
		}
	}
	return next
}

// reconstructBest walks the winning node's parent chain back through the
// arena, collecting encoded bytes, and returns them in emission order.
func (t *Tree) reconstructBest(frontier []Node, capacity int) []byte {
	best := 0
	for i := 1; i < len(frontier); i++ {
		if frontier[i].Weight < frontier[best].Weight {
			best = i
		}
	}

	out := make([]byte, 0, capacity)
	out = append(out, frontier[best].EncodedByte)
	parent := frontier[best].ParentIndex
	for len(out) < capacity && parent != noParent {
		node := t.arena[parent]
		out = append(out, node.EncodedByte)
		parent = node.ParentIndex
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// pruneThreshold recomputes the admission weight for the next step's
// expansion. When the frontier exceeds maxActiveBeam>>freedomBits, weights
// are quantized into pruneBuckets+1 histogram buckets spanning
// [minWeight, maxWeight]. Buckets are summed from the lowest until the
// cumulative count reaches the active-beam budget (or pruneBuckets buckets
// have been summed); with i the number of buckets summed, the threshold is
// minWeight + (i-2)*span/pruneBuckets, one bucket width below the lower
// edge of the last bucket summed.
func pruneThreshold(nodes []Node, freedomBits uint8) (maxWeight, minWeight float32) {
	minWeight, maxWeight = nodes[0].Weight, nodes[0].Weight
	for _, n := range nodes[1:] {
		if n.Weight < minWeight {
			minWeight = n.Weight
		}
		if n.Weight > maxWeight {
			maxWeight = n.Weight
		}
	}

	limit := maxActiveBeam >> freedomBits
	if len(nodes) <= limit {
		return maxWeight, minWeight
	}

	span := maxWeight - minWeight
	if span == 0 {
		// Every surviving path costs the same; nothing to discriminate.
		return minWeight, minWeight
	}

	coeff := float32(pruneBuckets) / span
	var buckets [pruneBuckets + 1]int
	for _, n := range nodes {
		idx := int(coeff * (n.Weight - minWeight))
		if idx > pruneBuckets {
			idx = pruneBuckets
		}
		buckets[idx]++
	}

	pred, i := 0, 0
	for i < pruneBuckets && pred < limit {
		pred += buckets[i]
		i++
	}
	maxWeight = minWeight + float32(i-2)*span/float32(pruneBuckets)
	return maxWeight, minWeight
}

// bitReader walks a byte slice LSB-first, bit 0 of byte 0 first. Reads past
// the end report ok=false rather than erroring: running out of message
// bits mid-stream is not a failure (§4.D, §9 note: remaining bits = 0).
type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) next() (bit byte, ok bool) {
	byteIdx := r.pos / 8
	if byteIdx >= len(r.data) {
		return 0, false
	}
	bitIdx := uint(r.pos % 8)
	bit = (r.data[byteIdx] >> bitIdx) & 1
	r.pos++
	return bit, true
}

// readTemplate reads (8-freedomBits) message bits and packs them into the
// high bits of a byte template, MSB-first: the first bit read lands at
// position 7, the next at 6, down to freedomBits. The low freedomBits
// positions are left zero for the caller to OR in a freedom-bit value.
func readTemplate(br *bitReader, freedomBits uint8) byte {
	var template byte
	for pos := 7; pos >= int(freedomBits); pos-- {
		if bit, ok := br.next(); ok && bit == 1 {
			template |= 1 << uint(pos)
		}
	}
	return template
}
