package pixel

import (
	"fmt"
	"image/color"
)

// Color is an opaque 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromColor drops alpha and keeps the non-premultiplied RGB values.
func FromColor(c color.Color) Color {
	if pc, ok := c.(Color); ok {
		return pc
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (c Color) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// SquaredDistance is the squared Euclidean distance in RGB space.
func SquaredDistance(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
