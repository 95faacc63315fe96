package session

import (
	"image"
	"sync"

	"github.com/samber/lo"

	"pixeler/pkg/pixel"
)

func NewHistory(max int) *History {
	return &History{max: lo.Ternary(max > 0, max, 3)}
}

type History struct {
	l     sync.Mutex
	max   int
	items []*Result
}

type Result struct {
	Source  *Source
	Size    int
	Palette pixel.Palette
	Image   image.Image
	Cached  bool
}

func (r *Result) source() *Source {
	if r == nil {
		return nil
	}
	return r.Source
}

// Push appends item and returns the result it pushed out, if any.
func (h *History) Push(item *Result) *Result {
	h.l.Lock()
	defer h.l.Unlock()

	h.items = append(h.items, item)
	if len(h.items) > h.max {
		dropped := h.items[0]
		h.items = h.items[1:]
		return dropped
	}
	return nil
}

// Holds reports whether any kept result was made from src.
func (h *History) Holds(src *Source) bool {
	h.l.Lock()
	defer h.l.Unlock()
	for _, item := range h.items {
		if item.Source == src {
			return true
		}
	}
	return false
}

func (h *History) Logs() []*Result {
	h.l.Lock()
	defer h.l.Unlock()
	return append([]*Result(nil), h.items...)
}

func (h *History) Curr() *Result {
	h.l.Lock()
	defer h.l.Unlock()
	item, _ := lo.Last(h.items)
	return item
}

func (h *History) Prev() *Result {
	h.l.Lock()
	defer h.l.Unlock()
	if len(h.items) < 2 {
		return nil
	}
	return h.items[len(h.items)-2]
}
