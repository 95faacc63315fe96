package palette

import (
	"encoding/json"
	"fmt"
	"io"

	"pixeler/pkg/pixel"
)

// Marshal writes p as an array of [r, g, b] arrays.
func Marshal(p pixel.Palette) ([]byte, error) {
	entries := make([][3]int, len(p))
	for i, c := range p {
		entries[i] = [3]int{int(c.R), int(c.G), int(c.B)}
	}
	return json.Marshal(entries)
}

// Unmarshal reads an array of [r, g, b] arrays. Duplicates are kept.
func Unmarshal(bs []byte) (pixel.Palette, error) {
	var entries [][]int
	if err := json.Unmarshal(bs, &entries); err != nil {
		return nil, fmt.Errorf("palette decode failed: %w", err)
	}

	p := make(pixel.Palette, 0, len(entries))
	for i, e := range entries {
		if len(e) != 3 {
			return nil, fmt.Errorf("palette entry %d has %d components, want 3", i, len(e))
		}
		for _, v := range e {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("palette entry %d: %d is out of range 0-255", i, v)
			}
		}
		p = append(p, pixel.RGB(uint8(e[0]), uint8(e[1]), uint8(e[2])))
	}

	return p, nil
}

func Read(r io.Reader) (pixel.Palette, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(bs)
}

func Write(w io.Writer, p pixel.Palette) error {
	bs, err := Marshal(p)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}
