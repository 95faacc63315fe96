package local

import (
	"image"
	"time"

	"go.uber.org/zap"

	"pixeler/pkg/pixel"
	"pixeler/pkg/proto"
)

func New(logger *zap.Logger) proto.Processor {
	return &Local{logger}
}

type Local struct {
	l *zap.Logger
}

func (p *Local) Process(img image.Image, size int, palette pixel.Palette) (image.Image, error) {
	start := time.Now()

	out, err := pixel.Process(img, size, palette)
	if err != nil {
		return nil, err
	}

	p.l.With(
		zap.Int("size", size),
		zap.Int("colors", len(palette)),
		zap.Int("w", out.Bounds().Dx()),
		zap.Int("h", out.Bounds().Dy()),
		zap.Duration("took", time.Since(start)),
	).Debug("process")
	return out, nil
}
