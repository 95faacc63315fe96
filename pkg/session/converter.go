package session

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"pixeler/pkg/config"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
	"pixeler/pkg/proto"
	"pixeler/pkg/store"
)

var (
	ErrNoSource = errors.New("no image selected")
	ErrNoResult = errors.New("no processed image")
)

func NewConverter(proc proto.Processor, cfg *config.Config, params *Params, st *store.Store, cache *Cache, history *History, logger *zap.Logger) *Converter {
	return &Converter{
		proc:    proc,
		cfg:     cfg,
		params:  params,
		store:   st,
		cache:   cache,
		history: history,
		logger:  logger,
	}
}

// Converter runs conversions with the current Params and keeps their results.
type Converter struct {
	sync.Mutex
	proc    proto.Processor
	cfg     *config.Config
	params  *Params
	store   *store.Store
	cache   *Cache
	history *History
	logger  *zap.Logger
}

// Select makes src the current source and converts it.
func (c *Converter) Select(src *Source) (*Result, error) {
	c.Lock()
	defer c.Unlock()

	res, dropped, err := c.convert(src)
	if err != nil {
		return nil, err
	}

	prev := c.params.SetSource(src)
	c.release(dropped.source(), prev)
	return res, nil
}

// Reload converts the current source again with the current params.
func (c *Converter) Reload() (*Result, error) {
	c.Lock()
	defer c.Unlock()

	src := c.params.Source()
	if src == nil {
		return nil, ErrNoSource
	}

	res, dropped, err := c.convert(src)
	if err != nil {
		return nil, err
	}

	c.release(dropped.source())
	return res, nil
}

// release frees sources no longer reachable from the history or the params.
func (c *Converter) release(sources ...*Source) {
	current := c.params.Source()
	for _, src := range sources {
		if src == nil || src == current || c.history.Holds(src) {
			continue
		}
		if err := src.Free(); err != nil {
			c.logger.With(zap.String("source", src.Name()), zap.Error(err)).Info("free source failed")
		}
	}
}

func (c *Converter) convert(src *Source) (*Result, *Result, error) {
	img, digest, err := src.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load source failed: %w", err)
	}

	size := c.params.Size()
	colors := c.params.Palette()
	log := c.logger.With(zap.String("source", src.Name()), zap.Int("size", size), zap.Int("colors", len(colors)))

	exists, cached, errL := c.cache.LoadImage(digest, size, colors)
	if errL != nil {
		return nil, nil, fmt.Errorf("load cache failed: %w", errL)
	}

	res := &Result{Source: src, Size: size, Palette: colors, Image: cached, Cached: exists}
	if !exists {
		if res.Image, err = c.proc.Process(img, size, colors); err != nil {
			return nil, nil, err
		}
		if err := c.cache.SaveImage(digest, size, colors, res.Image); err != nil {
			log.With(zap.Error(err)).Info("save cache failed")
		}
	}

	log.With(zap.Bool("cached", exists)).Debug("converted")
	return res, c.history.Push(res), nil
}

// Close frees every source still held by the history or the params.
func (c *Converter) Close() {
	c.Lock()
	defer c.Unlock()

	sources := []*Source{c.params.SetSource(nil)}
	for _, res := range c.history.Logs() {
		sources = append(sources, res.Source)
	}
	for _, src := range lo.Uniq(sources) {
		if src == nil {
			continue
		}
		if err := src.Free(); err != nil {
			c.logger.With(zap.String("source", src.Name()), zap.Error(err)).Info("free source failed")
		}
	}
}

// Preview fits a result into the display bounds.
func (c *Converter) Preview(res *Result) (*image.NRGBA, error) {
	return pixel.Preview(res.Image, c.cfg.DisplayWidth, c.cfg.DisplayHeight)
}

// Prev makes the previous result current again, restoring the source, size
// and palette it was made with.
func (c *Converter) Prev() (*Result, error) {
	c.Lock()
	defer c.Unlock()

	res := c.history.Prev()
	if res == nil {
		return nil, ErrNoResult
	}

	dropped := c.history.Push(res)
	prev := c.params.SetSource(res.Source)
	c.params.SetSize(res.Size)
	if err := c.replacePalette(res.Palette); err != nil {
		return nil, err
	}

	c.release(dropped.source(), prev)
	return res, nil
}

// Save writes the current result as the next numbered PNG.
func (c *Converter) Save() (string, error) {
	res := c.history.Curr()
	if res == nil {
		return "", ErrNoResult
	}
	return c.store.SaveImage(res.Image)
}

func (c *Converter) SavePalette() (string, error) {
	return c.store.SavePalette(c.params.Palette())
}

func (c *Converter) LoadPalette(name string) (pixel.Palette, error) {
	p, err := c.store.LoadPalette(name)
	if err != nil {
		return nil, err
	}
	return p, c.replacePalette(p)
}

// LoadDefaultPalette loads the configured palette, if the file exists.
func (c *Converter) LoadDefaultPalette() (pixel.Palette, error) {
	p, err := c.store.LoadDefaultPalette(c.cfg.DefaultPalette)
	if err != nil {
		return nil, err
	}
	return p, c.replacePalette(p)
}

// Extract replaces the palette with k colors taken from the current source.
func (c *Converter) Extract(k int, method palette.Method) (pixel.Palette, error) {
	src := c.params.Source()
	if src == nil {
		return nil, ErrNoSource
	}

	img, _, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("load source failed: %w", err)
	}

	p, err := palette.Extract(img, k, method)
	if err != nil {
		return nil, err
	}
	palette.SortByBrightness(p)
	return p, c.replacePalette(p)
}

func (c *Converter) replacePalette(p pixel.Palette) error {
	return c.params.UpdatePalette(func(l *palette.List) error {
		l.Replace(p)
		return nil
	})
}
