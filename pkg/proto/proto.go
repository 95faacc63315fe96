package proto

import (
	"image"

	"pixeler/pkg/pixel"
)

type Processor interface {
	Process(img image.Image, size int, palette pixel.Palette) (image.Image, error)
}
