// Package stego implements a grayscale-image steganographic channel: a
// randomized KT entropy codec, a beam-search resolver for the codec's
// "freedom bits", and a pixel-domain carrier that writes the resulting
// code bytes into a cover image's least-significant intensity buckets.
//
// Basic usage for concealing a message:
//
//	cfg := stego.DefaultConfig()
//	out, err := stego.Conceal(cover, []byte("hello"), cfg)
//
// Basic usage for revealing it again:
//
//	msg := stego.Reveal(out, cfg)
package stego

import (
	"image"

	"github.com/pkg/errors"

	"github.com/deepteams/stego/internal/carrier"
	"github.com/deepteams/stego/internal/kt"
	"github.com/deepteams/stego/internal/search"
	"github.com/deepteams/stego/internal/traverse"
)

// Errors returned by the pipeline.
var (
	// ErrCoverTooSmall is returned when the cover image cannot hold even
	// one code byte under the requested traversal.
	ErrCoverTooSmall = errors.New("stego: cover image too small for any payload")

	// ErrEmptyFrontier is returned when the beam search's active frontier
	// is pruned to nothing. This should not occur in ordinary use; it
	// indicates the probability model and pruning budget are in conflict
	// (see search.FindBestEncoding).
	ErrEmptyFrontier = errors.New("stego: beam search frontier collapsed to empty")
)

// TraverserKind selects a pixel traversal strategy.
type TraverserKind int

const (
	// Modulo is the deterministic stride-based traverser (§4.E). It
	// requires no seed and no reshuffle cost, at the expense of visiting
	// pixels in a fixed, easily-characterized order.
	Modulo TraverserKind = iota
	// Shuffled is the seeded-permutation traverser.
	Shuffled
)

// Config bundles every parameter that both the concealer and the
// revealer must agree on. CodecSeed and TraverserSeed (when Traverser is
// Shuffled) must match exactly between Conceal and Reveal, or the
// decoded message will be garbage.
type Config struct {
	// FreedomBits is the number of low-order bits per code byte left free
	// for the beam search to choose, trading payload density for choice
	// of encoding (§4.D). Valid range: 0-7.
	FreedomBits uint8
	// CodecSeed seeds the KT transition tables (§4.A).
	CodecSeed uint64
	// TraverserSeed seeds the Shuffled traverser. Ignored for Modulo.
	TraverserSeed uint64
	// BucketSize is the carrier's intensity bucket width: carrier.Bucket2
	// or carrier.Bucket4.
	BucketSize carrier.BucketSize
	// Traverser selects the pixel traversal strategy.
	Traverser TraverserKind
	// SearchCapacity bounds how many code bytes Encode will search for,
	// in addition to whatever the cover's EncodingCapacity allows. A
	// value of 0 means "use the cover's full capacity".
	SearchCapacity int
}

// DefaultConfig returns the pipeline's reference parameters: 2 freedom
// bits, codec seed 5, traverser seed 10, 4-wide buckets, modulo
// traversal (§8's worked examples use these values throughout).
func DefaultConfig() Config {
	return Config{
		FreedomBits:   2,
		CodecSeed:     5,
		TraverserSeed: 10,
		BucketSize:    carrier.Bucket4,
		Traverser:     Modulo,
	}
}

func (c Config) newTraverser(pixelCount int, w uint32) traverse.Traverser {
	if c.Traverser == Shuffled {
		return traverse.NewShuffled(pixelCount, w, c.TraverserSeed)
	}
	return traverse.NewModulo()
}

// EncodingCapacity returns how many code bytes a w x h cover image can
// carry: floor(pixel_count / 8), independent of Config (§4.F).
func EncodingCapacity(w, h uint32) uint64 {
	return carrier.EncodingCapacity(w, h)
}

// Encode runs the beam search over message and returns the resulting
// code-byte stream, without touching any image. Callers that only need
// the entropy-coding stage (e.g. to measure payload size before picking
// a cover) can call this directly; most callers want Conceal.
func Encode(message []byte, probabilities []float32, capacity int, cfg Config) ([]byte, error) {
	codec := kt.NewCodec(cfg.CodecSeed)
	tree := search.NewTree(codec)
	out := tree.FindBestEncoding(message, probabilities, capacity, cfg.FreedomBits)
	if out == nil {
		return nil, ErrEmptyFrontier
	}
	return out, nil
}

// Decode inverts Encode: it replays the KT codec forward over stream and
// extracts, from each decoded plaintext byte, the FreedomBits high-order
// bits that correspond to the caller's message, re-assembling them
// LSB-first into a byte stream (the mirror image of the bit-reversing
// template packing performed by the search stage; see
// search.readTemplate and its accompanying note on message bit order).
func Decode(stream []byte, cfg Config) []byte {
	codec := kt.NewCodec(cfg.CodecSeed)

	var out []byte
	var cur byte
	var nbits uint
	var state kt.State

	flush := func() {
		out = append(out, cur)
		cur = 0
		nbits = 0
	}

	for _, b := range stream {
		plain, next := codec.Decode(b, state)
		state = next
		for pos := 7; pos >= int(cfg.FreedomBits); pos-- {
			bit := (plain >> uint(pos)) & 1
			cur |= bit << nbits
			nbits++
			if nbits == 8 {
				flush()
			}
		}
	}
	if nbits > 0 {
		out = append(out, cur)
	}
	return out
}

// Conceal derives a probability model from cover's pixel intensities,
// searches for the best code-byte encoding of message, and writes the
// result into a copy of cover via the pixel carrier. It returns
// ErrCoverTooSmall if cover cannot carry even a single code byte, and
// ErrEmptyFrontier if the search collapses (see search.FindBestEncoding).
func Conceal(cover *image.Gray, message []byte, cfg Config) (*image.Gray, error) {
	w, h := uint32(cover.Bounds().Dx()), uint32(cover.Bounds().Dy())
	capacity := EncodingCapacity(w, h)
	if capacity == 0 {
		return nil, ErrCoverTooSmall
	}

	trav := cfg.newTraverser(int(w)*int(h), w)
	probs := carrier.DerivePixelProbabilities(cover, trav, traverse.StartPosition)

	searchCap := int(capacity)
	if cfg.SearchCapacity > 0 && cfg.SearchCapacity < searchCap {
		searchCap = cfg.SearchCapacity
	}

	stream, err := Encode(message, probs, searchCap, cfg)
	if err != nil {
		return nil, err
	}

	trav = cfg.newTraverser(int(w)*int(h), w) // carrier walks independently, from the start
	return carrier.WriteStego(cover, stream, trav, cfg.BucketSize), nil
}

// Reveal walks stego with the same traverser/bucket Conceal used, reads
// back the full code-byte stream the carrier can hold, and decodes it.
// The caller is responsible for knowing (out of band) how many message
// bytes to keep from the returned slice, since the carrier has no
// explicit length framing (§7 Non-goals).
func Reveal(stego *image.Gray, cfg Config) []byte {
	w, h := uint32(stego.Bounds().Dx()), uint32(stego.Bounds().Dy())
	trav := cfg.newTraverser(int(w)*int(h), w)
	stream := carrier.ReadStream(stego, trav, cfg.BucketSize)
	return Decode(stream, cfg)
}
