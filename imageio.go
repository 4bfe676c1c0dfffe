package stego

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// LoadGray decodes a PNG, JPEG, GIF, or BMP image from r and converts it
// to 8-bit grayscale. Stego operations only ever see the resulting
// intensity plane; no carrier concern touches color images directly
// (§1 Non-goals: no multi-channel steganography).
func LoadGray(r io.Reader) (*image.Gray, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "stego: decoding cover image")
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return gray, nil
}

// SaveBMP writes img as an uncompressed BMP. BMP is the default output
// format for stego images because it stores every pixel value as-is:
// unlike JPEG, it applies no lossy quantization that could disturb the
// carrier's bucket-parity bits (§1, §4.F).
func SaveBMP(w io.Writer, img *image.Gray) error {
	if err := bmp.Encode(w, img); err != nil {
		return errors.Wrap(err, "stego: encoding stego image as BMP")
	}
	return nil
}

// SavePNG writes img as a PNG. PNG is lossless, so it is safe for a
// stego image as long as the encoder does not re-quantize pixel values;
// Go's image/png never does. Provided as a convenience alongside SaveBMP
// for callers that prefer PNG's smaller file size.
func SavePNG(w io.Writer, img *image.Gray) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(err, "stego: encoding stego image as PNG")
	}
	return nil
}

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}
