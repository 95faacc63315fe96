package session

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"os"

	"github.com/spf13/afero"

	"pixeler/internal/codec"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
)

func NewCache(dir string) (*Cache, error) {
	c := &Cache{}

	if dir == "" {
		return c, nil
	}

	if fs, err := newFs(dir); err != nil {
		return nil, fmt.Errorf("create cache failed: %w", err)
	} else {
		c.fs = fs
	}

	return c, nil
}

// Cache keeps processed results keyed by source digest, pixel size and palette.
type Cache struct {
	fs afero.Fs
}

func (c *Cache) dirname(size int, p pixel.Palette) string {
	bs, _ := palette.Marshal(p)
	sum := sha1.Sum(bs)
	return fmt.Sprintf("%dpx-%s", size, hex.EncodeToString(sum[:8]))
}

func (c *Cache) filename(digest string, size int, p pixel.Palette) string {
	return fmt.Sprintf("%s/%s.png", c.dirname(size, p), digest)
}

func (c *Cache) LoadImage(digest string, size int, p pixel.Palette) (bool, image.Image, error) {
	if c.fs == nil {
		return false, nil, nil
	}

	bs, err := afero.ReadFile(c.fs, c.filename(digest, size, p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		} else {
			return false, nil, err
		}
	}

	img, err := codec.DecodeBytes(bs)
	if err != nil {
		return false, nil, err
	}

	return true, img, nil
}

func (c *Cache) SaveImage(digest string, size int, p pixel.Palette, img image.Image) error {
	if c.fs == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := codec.EncodePNG(&buf, img); err != nil {
		return err
	}

	dir := c.dirname(size, p)
	file := c.filename(digest, size, p)

	if exists, err := afero.DirExists(c.fs, dir); err != nil {
		return err
	} else if !exists {
		if err2 := c.fs.MkdirAll(dir, 0755); err2 != nil {
			return err2
		}
	}

	return afero.WriteFile(c.fs, file, buf.Bytes(), 0644)
}
