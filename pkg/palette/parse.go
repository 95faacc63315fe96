package palette

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"pixeler/pkg/pixel"
)

// Hex renders c as #rrggbb.
func Hex(c pixel.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// Parse reads an RGB tuple ("25,200,150"), a hex code ("#19c896" or "#fff"),
// a gray level ("0"-"255") or an SVG color name.
func Parse(s string) (pixel.Color, error) {
	s = strings.TrimSpace(s)

	if strings.Count(s, ",") == 2 {
		var r, g, b uint8
		if n, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d", &r, &g, &b); err != nil || n != 3 {
			return pixel.Color{}, fmt.Errorf("%s is not a valid RGB tuple. Example: 25,200,150", s)
		}
		return pixel.RGB(r, g, b), nil
	}

	if !strings.HasPrefix(s, "#") && len(s) <= 3 {
		if n, err := strconv.Atoi(s); err == nil {
			if n < 0 || n > 255 {
				return pixel.Color{}, fmt.Errorf("single numbers like %d must be in the range 0-255", n)
			}
			return pixel.RGB(uint8(n), uint8(n), uint8(n)), nil
		}
	}

	if c, ok := parseHex(s); ok {
		return c, nil
	}

	if named, ok := colornames.Map[strings.ToLower(s)]; ok {
		return pixel.FromColor(named), nil
	}

	return pixel.Color{}, fmt.Errorf("%s not recognized as an RGB tuple, hex code, number 0-255, or SVG color name", s)
}

func parseHex(s string) (pixel.Color, bool) {
	hex := strings.ToLower(strings.TrimPrefix(s, "#"))
	if len(hex) != 3 && len(hex) != 6 {
		return pixel.Color{}, false
	}

	cf, err := colorful.Hex("#" + hex)
	if err != nil {
		return pixel.Color{}, false
	}
	r, g, b := cf.RGB255()
	return pixel.RGB(r, g, b), true
}

// ParseList parses space separated colors.
func ParseList(s string) (pixel.Palette, error) {
	var p pixel.Palette
	for _, field := range strings.Fields(s) {
		c, err := Parse(field)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	return p, nil
}
