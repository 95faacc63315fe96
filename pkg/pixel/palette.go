package pixel

import (
	"image/color"
	"math"
)

// Palette is an ordered set of candidate colors. Order only matters when two
// entries are equally close to a pixel: the earlier one wins.
type Palette []Color

func (p Palette) Index(c Color) int {
	ret, bestSum := 0, math.MaxInt
	for i, v := range p {
		sum := SquaredDistance(c, v)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}

// Convert returns the nearest palette entry, or c itself for an empty palette.
func (p Palette) Convert(c Color) Color {
	if len(p) == 0 {
		return c
	}
	return p[p.Index(c)]
}

func (p Palette) Contains(c Color) bool {
	for _, v := range p {
		if v == c {
			return true
		}
	}
	return false
}

func (p Palette) Clone() Palette {
	if p == nil {
		return nil
	}
	return append(make(Palette, 0, len(p)), p...)
}

// ColorPalette converts to the standard library palette type.
func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c.NRGBA()
	}
	return cp
}

func FromColorPalette(cp []color.Color) Palette {
	p := make(Palette, len(cp))
	for i, c := range cp {
		p[i] = FromColor(c)
	}
	return p
}
