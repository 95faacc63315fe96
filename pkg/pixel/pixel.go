/*
Package pixel turns images into pixel art.

An image is reduced by a block size with nearest-neighbor sampling, the
reduced cells are optionally mapped to the closest color of a palette, and
the result is expanded back by replicating every cell into a block. Trailing
rows and columns smaller than one block are cropped, so the output of Process
is always (W/size)*size by (H/size)*size.

All functions are pure: inputs are never modified and every call returns a
fresh *image.NRGBA anchored at (0, 0).
*/
package pixel

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Opaque copies img into an RGB image, dropping the alpha channel.
func Opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		// keep the stored RGB of translucent pixels
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[i:i+4*b.Dx()])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Process reduces img, quantizes the reduced cells when the palette is not
// empty and expands the result back to block scale.
func Process(img image.Image, size int, palette Palette) (*image.NRGBA, error) {
	reduced, err := Reduce(Opaque(img), size)
	if err != nil {
		return nil, err
	}

	if len(palette) > 0 {
		if reduced, err = Quantize(reduced, palette); err != nil {
			return nil, err
		}
	}

	return Expand(reduced, size)
}
