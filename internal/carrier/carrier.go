// Package carrier implements the pixel-domain bit channel: writing one
// payload bit per pixel into a grayscale cover image via a bucket-parity
// rule, reading it back, and deriving the per-pixel probability model the
// weight and search stages consume (§4.F).
package carrier

import (
	"image"
	"image/color"

	"github.com/deepteams/stego/internal/traverse"
)

// BucketSize selects the run length of consecutive intensities that all
// decode to the same bit. The contract (§3) allows {2, 4}.
type BucketSize int

const (
	Bucket2 BucketSize = 2
	Bucket4 BucketSize = 4
)

// BitOf returns the payload bit carried by a pixel: alternating buckets of
// size BucketSize carry 0, 1, 0, 1, ...
func BitOf(pixel uint8, bucket BucketSize) int {
	return int(pixel/uint8(bucket)) % 2
}

// WriteBit returns the pixel value that carries bit, derived from
// original. If original already carries bit, it is canonicalized to the
// bucket's mid-point (bucket*BucketSize + 1) for robustness to rounding;
// otherwise it is moved to the adjacent bucket carrying the opposite bit.
// Perturbation never exceeds BucketSize intensity steps.
func WriteBit(bit int, original uint8, bucket BucketSize) uint8 {
	b := int(bucket)
	curBucket := int(original) / b
	if BitOf(original, bucket) == bit {
		return uint8(curBucket*b + 1)
	}
	if curBucket == 0 {
		return uint8(b)
	}
	return uint8(curBucket*b - 1)
}

// EncodingCapacity is the number of code-bytes the carrier can hold:
// floor(pixel_count / 8).
func EncodingCapacity(w, h uint32) uint64 {
	return uint64(w) * uint64(h) / 8
}

// DerivePixelProbabilities walks trav starting from start and returns, for
// every traversed pixel, a probability in (0,1) derived from the pixel's
// intensity. The result has pixelCount+10 entries: ten trailing zero-pad
// slots so the weight model's 8*step+i indexing never runs past the last
// complete step (§9 note b).
func DerivePixelProbabilities(img *image.Gray, trav traverse.Traverser, start traverse.Point) []float32 {
	w, h := uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy())
	pixelCount := int(w) * int(h)
	dim := traverse.Dimensions{W: w, H: h}

	probs := make([]float32, pixelCount+10)
	pos := start
	for i := 0; i < pixelCount; i++ {
		next, ok := trav.Next(pos, dim, uint64(i))
		if !ok {
			break
		}
		pos = next
		pixel := img.GrayAt(int(pos.X), int(pos.Y)).Y
		probs[i] = (float32(pixel)/256.0 + 1e-4) * (1 - 2e-4)
	}
	return probs
}

// WriteStego returns a copy of cover with one bit of stream written into
// each traversed pixel (LSB-first over stream's bytes), stopping early
// once stream's bits are exhausted or the traverser is exhausted,
// whichever comes first. Pixels beyond the written payload retain their
// original cover value.
func WriteStego(cover *image.Gray, stream []byte, trav traverse.Traverser, bucket BucketSize) *image.Gray {
	w, h := uint32(cover.Bounds().Dx()), uint32(cover.Bounds().Dy())
	dim := traverse.Dimensions{W: w, H: h}
	pixelCount := int(w) * int(h)
	streamBits := len(stream) * 8

	out := image.NewGray(cover.Bounds())
	copy(out.Pix, cover.Pix)

	pos := traverse.StartPosition
	for i := 0; i < pixelCount; i++ {
		next, ok := trav.Next(pos, dim, uint64(i))
		if !ok {
			break
		}
		pos = next
		if i >= streamBits {
			continue
		}
		bit := int((stream[i/8] >> uint(i%8)) & 1)
		original := cover.GrayAt(int(pos.X), int(pos.Y)).Y
		out.SetGray(int(pos.X), int(pos.Y), color.Gray{Y: WriteBit(bit, original, bucket)})
	}
	return out
}

// ReadStream walks trav over stego and reinterprets the traversed pixels'
// parity bits as bytes (LSB-first, least-significant byte first),
// returning exactly floor(pixel_count/8) complete bytes.
func ReadStream(stego *image.Gray, trav traverse.Traverser, bucket BucketSize) []byte {
	w, h := uint32(stego.Bounds().Dx()), uint32(stego.Bounds().Dy())
	dim := traverse.Dimensions{W: w, H: h}
	pixelCount := int(w) * int(h)
	capacity := pixelCount / 8

	out := make([]byte, capacity)
	pos := traverse.StartPosition
	for i := 0; i < capacity*8; i++ {
		next, ok := trav.Next(pos, dim, uint64(i))
		if !ok {
			break
		}
		pos = next
		pixel := stego.GrayAt(int(pos.X), int(pos.Y)).Y
		if BitOf(pixel, bucket) == 1 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
