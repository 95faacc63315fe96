package pixel

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

func checkSize(size int) error {
	if size < 1 {
		return errors.Wrapf(ErrInvalidArgument, "pixel size %d is less than 1", size)
	}
	return nil
}

// Reduce samples one source pixel per size x size block.
func Reduce(img image.Image, size int) (*image.NRGBA, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx()/size, b.Dy()/size
	if w == 0 || h == 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "image %dx%d is smaller than a %dpx block", b.Dx(), b.Dy(), size)
	}

	return imaging.Resize(img, w, h, imaging.NearestNeighbor), nil
}

// Expand replicates every pixel into a size x size block.
func Expand(img image.Image, size int) (*image.NRGBA, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrap(ErrInvalidArgument, "image is empty")
	}

	return imaging.Resize(img, b.Dx()*size, b.Dy()*size, imaging.NearestNeighbor), nil
}

// Preview scales img to fit within maxW x maxH keeping its aspect ratio.
// Smaller images are scaled up, pixels stay sharp.
func Preview(img image.Image, maxW, maxH int) (*image.NRGBA, error) {
	if maxW < 1 || maxH < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "preview bounds %dx%d", maxW, maxH)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrap(ErrInvalidArgument, "image is empty")
	}

	scale := float64(maxW) / float64(b.Dx())
	if s := float64(maxH) / float64(b.Dy()); s < scale {
		scale = s
	}

	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return imaging.Resize(img, w, h, imaging.NearestNeighbor), nil
}
