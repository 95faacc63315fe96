package palette

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mccutchen/palettor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"pixeler/pkg/pixel"
)

type Method string

const (
	MethodDominant  Method = "dominant"
	MethodKMeans    Method = "kmeans"
	MethodPalettor  Method = "palettor"
	MethodMedianCut Method = "mediancut"
)

var Methods = []Method{MethodDominant, MethodKMeans, MethodPalettor, MethodMedianCut}

var ErrUnknownMethod = errors.New("unknown extract method")

const (
	thumbSize       = 200
	palettorIters   = 500
	kmeansMaxSample = 12000
)

// Extract derives a k color palette from img.
func Extract(img image.Image, k int, method Method) (pixel.Palette, error) {
	if k < 1 {
		return nil, errors.Wrapf(pixel.ErrInvalidArgument, "palette size %d", k)
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrap(pixel.ErrInvalidArgument, "image is empty")
	}

	var p pixel.Palette
	var err error

	switch method {
	case MethodDominant:
		p = extractDominant(img, k)
	case MethodKMeans:
		p, err = extractKMeans(img, k)
	case MethodPalettor:
		p, err = extractPalettor(img, k)
	case MethodMedianCut:
		p = extractMedianCut(img, k)
	default:
		return nil, errors.Wrapf(ErrUnknownMethod, "%q", method)
	}
	if err != nil {
		return nil, err
	}

	return lo.Uniq(p), nil
}

func extractDominant(img image.Image, k int) pixel.Palette {
	found := dominantcolor.FindWeight(img, k)
	return lo.Map(found, func(c dominantcolor.Color, _ int) pixel.Color {
		return pixel.FromColor(c.RGBA)
	})
}

func extractKMeans(img image.Image, k int) (pixel.Palette, error) {
	b := img.Bounds()

	step := 1
	if n := b.Dx() * b.Dy(); n > kmeansMaxSample {
		step = int(math.Sqrt(float64(n)/float64(kmeansMaxSample))) + 1
	}

	var dataset clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := pixel.FromColor(img.At(x, y))
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}
	if k > len(dataset) {
		k = len(dataset)
	}

	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil, errors.Wrap(err, "kmeans partition failed")
	}

	// most populated first
	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	var p pixel.Palette
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		r, g, b := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped().RGB255()
		p = append(p, pixel.RGB(r, g, b))
	}
	return p, nil
}

func extractPalettor(img image.Image, k int) (pixel.Palette, error) {
	thumb := imaging.Resize(img, thumbSize, thumbSize, imaging.NearestNeighbor)

	pal, err := palettor.Extract(k, palettorIters, thumb)
	if err != nil {
		return nil, errors.Wrap(err, "palettor extract failed")
	}

	colors := pal.Colors()
	slices.SortStableFunc(colors, func(a, b color.Color) int {
		wa, wb := pal.Weight(a), pal.Weight(b)
		switch {
		case wa > wb:
			return -1
		case wa < wb:
			return 1
		}
		return 0
	})
	return pixel.FromColorPalette(colors), nil
}

func extractMedianCut(img image.Image, k int) pixel.Palette {
	q := quantize.MedianCutQuantizer{}
	return pixel.FromColorPalette(q.Quantize(make(color.Palette, 0, k), img))
}

// SortByBrightness orders colors from darkest to brightest by relative luminance.
func SortByBrightness(p pixel.Palette) {
	luma := func(c pixel.Color) float64 {
		cf, _ := colorful.MakeColor(c)
		r, g, b := cf.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}
	slices.SortStableFunc(p, func(a, b pixel.Color) int {
		la, lb := luma(a), luma(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}
