package pixel

import (
	"image"

	"github.com/pkg/errors"
)

// Quantize maps every pixel of img to its nearest palette color.
func Quantize(img image.Image, palette Palette) (*image.NRGBA, error) {
	if len(palette) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "palette is empty")
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	// reduced images repeat colors a lot
	seen := make(map[Color]Color)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := FromColor(img.At(x, y))
			n, ok := seen[c]
			if !ok {
				n = palette.Convert(c)
				seen[c] = n
			}
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, n.NRGBA())
		}
	}

	return dst, nil
}
