package remote

import (
	"pixeler/pkg/pixel"
)

type ProcessRequest struct {
	Image   []byte
	Size    int
	Palette pixel.Palette
}

type ProcessResponse struct {
	Image []byte
}
