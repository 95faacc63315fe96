package palette

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"pixeler/pkg/pixel"
)

var ErrNotFound = errors.New("color not in palette")

// List is the editable palette of a session. It is not safe for concurrent
// use; callers serialize writes.
type List struct {
	colors pixel.Palette
}

func NewList(colors ...pixel.Color) *List {
	return &List{colors: pixel.Palette(colors).Clone()}
}

// Add appends c unless it is already present.
func (l *List) Add(c pixel.Color) bool {
	if lo.Contains(l.colors, c) {
		return false
	}
	l.colors = append(l.colors, c)
	return true
}

// Remove drops the first occurrence of c.
func (l *List) Remove(c pixel.Color) error {
	i := lo.IndexOf(l.colors, c)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "remove %s", Hex(c))
	}
	return l.RemoveAt(i)
}

func (l *List) RemoveAt(i int) error {
	if i < 0 || i >= len(l.colors) {
		return errors.Wrapf(ErrNotFound, "index %d out of %d colors", i, len(l.colors))
	}
	l.colors = append(l.colors[:i:i], l.colors[i+1:]...)
	return nil
}

func (l *List) Clear() {
	l.colors = nil
}

// Replace swaps the whole palette, e.g. after loading a file. Duplicates are kept.
func (l *List) Replace(p pixel.Palette) {
	l.colors = p.Clone()
}

func (l *List) Colors() pixel.Palette {
	return l.colors.Clone()
}

func (l *List) Len() int {
	return len(l.colors)
}
