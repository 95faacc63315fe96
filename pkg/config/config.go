package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type Config struct {
	PixelSizeMin     int
	PixelSizeMax     int
	PixelSizeDefault int

	DefaultPalette string
	DisplayWidth   int
	DisplayHeight  int

	// numbered output, relative to WorkDir
	WorkDir    string
	PaletteDir string
	ImageDir   string

	CacheDir string
	TmpDir   string
}

func Default() *Config {
	return &Config{
		PixelSizeMin:     1,
		PixelSizeMax:     50,
		PixelSizeDefault: 10,
		DefaultPalette:   "palette/default.json",
		DisplayWidth:     800,
		DisplayHeight:    600,
		WorkDir:          ".",
		PaletteDir:       "palette",
		ImageDir:         "img",
	}
}

func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.PixelSizeMin, "size-min", c.PixelSizeMin, "smallest pixel size")
	fs.IntVar(&c.PixelSizeMax, "size-max", c.PixelSizeMax, "largest pixel size")
	fs.IntVar(&c.PixelSizeDefault, "size", c.PixelSizeDefault, "default pixel size")
	fs.StringVar(&c.DefaultPalette, "default-palette", c.DefaultPalette, "palette file loaded at start")
	fs.IntVar(&c.DisplayWidth, "display-width", c.DisplayWidth, "max preview width")
	fs.IntVar(&c.DisplayHeight, "display-height", c.DisplayHeight, "max preview height")
	fs.StringVar(&c.WorkDir, "workdir", c.WorkDir, "base dir for saved palettes and images")
	fs.StringVar(&c.PaletteDir, "palette-dir", c.PaletteDir, "saved palettes dir")
	fs.StringVar(&c.ImageDir, "image-dir", c.ImageDir, "saved images dir")
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "processed image cache dir")
	fs.StringVar(&c.TmpDir, "tmp-dir", c.TmpDir, "received sources dir")
}

func (c *Config) Validate() error {
	switch {
	case c.PixelSizeMin < 1:
		return errors.Errorf("size-min %d is less than 1", c.PixelSizeMin)
	case c.PixelSizeMax < c.PixelSizeMin:
		return errors.Errorf("size-max %d is less than size-min %d", c.PixelSizeMax, c.PixelSizeMin)
	case c.PixelSizeDefault < c.PixelSizeMin || c.PixelSizeDefault > c.PixelSizeMax:
		return errors.Errorf("size %d is out of [%d, %d]", c.PixelSizeDefault, c.PixelSizeMin, c.PixelSizeMax)
	case c.DisplayWidth < 1 || c.DisplayHeight < 1:
		return errors.Errorf("display bounds %dx%d", c.DisplayWidth, c.DisplayHeight)
	}
	return nil
}

// Clamp keeps a requested pixel size in the configured range.
func (c *Config) Clamp(size int) int {
	if size < c.PixelSizeMin {
		return c.PixelSizeMin
	}
	if size > c.PixelSizeMax {
		return c.PixelSizeMax
	}
	return size
}
