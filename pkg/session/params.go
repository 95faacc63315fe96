package session

import (
	"sync"

	"pixeler/pkg/config"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
)

func NewParams(cfg *config.Config) *Params {
	return &Params{
		cfg:     cfg,
		size:    cfg.Clamp(cfg.PixelSizeDefault),
		palette: palette.NewList(),
	}
}

// Params is the state a conversion runs with.
type Params struct {
	l sync.RWMutex

	cfg     *config.Config
	size    int
	palette *palette.List
	source  *Source
}

func (p *Params) Size() int {
	p.l.RLock()
	defer p.l.RUnlock()
	return p.size
}

// SetSize stores the clamped size and returns it.
func (p *Params) SetSize(size int) int {
	p.l.Lock()
	defer p.l.Unlock()
	p.size = p.cfg.Clamp(size)
	return p.size
}

func (p *Params) Palette() pixel.Palette {
	p.l.RLock()
	defer p.l.RUnlock()
	return p.palette.Colors()
}

func (p *Params) UpdatePalette(fn func(l *palette.List) error) error {
	p.l.Lock()
	defer p.l.Unlock()
	return fn(p.palette)
}

func (p *Params) Source() *Source {
	p.l.RLock()
	defer p.l.RUnlock()
	return p.source
}

// SetSource returns the source it replaced.
func (p *Params) SetSource(s *Source) *Source {
	p.l.Lock()
	defer p.l.Unlock()
	prev := p.source
	p.source = s
	return prev
}
