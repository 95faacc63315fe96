package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"pixeler/internal/codec"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
	"pixeler/pkg/processor/local"
	"pixeler/pkg/processor/remote"
	"pixeler/pkg/proto"
	"pixeler/pkg/session"
	"pixeler/pkg/store"
)

var osFs = afero.NewOsFs()

func openStore(c *cli.Context) (*store.Store, error) {
	return store.NewOs(c.String("workdir"), store.Options{
		PaletteDir: c.String("palette-dir"),
		ImageDir:   c.String("image-dir"),
	}, logger)
}

// loadSource reads an image from a local path or an http(s) url.
func loadSource(in string) (image.Image, error) {
	if in == "" {
		return nil, errors.New("no input image")
	}

	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		dl, err := session.NewDownloader("", logger)
		if err != nil {
			return nil, err
		}
		bs, err := dl.Get(in)
		if err != nil {
			return nil, err
		}
		return codec.DecodeBytes(bs)
	}

	return codec.Open(osFs, in)
}

// loadPalette takes a palette file, or inline colors when no such file exists.
func loadPalette(arg string) (pixel.Palette, error) {
	if arg == "" {
		return nil, nil
	}

	if exists, _ := afero.Exists(osFs, arg); exists {
		return readPaletteFile(arg)
	}
	return palette.ParseList(arg)
}

func readPaletteFile(name string) (pixel.Palette, error) {
	f, err := osFs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	p, err := palette.Read(f)
	if err != nil {
		return nil, fmt.Errorf("load palette %s failed: %w", name, err)
	}
	return p, nil
}

func writePaletteFile(name string, p pixel.Palette) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := osFs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	bs, err := palette.Marshal(p)
	if err != nil {
		return err
	}
	return afero.WriteFile(osFs, name, bs, 0644)
}

func process(c *cli.Context) error {
	img, err := loadSource(c.Args().First())
	if err != nil {
		return err
	}

	colors, err := loadPalette(c.String("palette"))
	if err != nil {
		return err
	}

	var proc proto.Processor
	if addr := c.String("remote"); addr != "" {
		if proc, err = remote.New(addr); err != nil {
			return fmt.Errorf("connect %s failed: %w", addr, err)
		}
	} else {
		proc = local.New(logger)
	}

	out, err := proc.Process(img, c.Int("size"), colors)
	if err != nil {
		return err
	}

	if c.Bool("preview") {
		if out, err = pixel.Preview(out, c.Int("display-width"), c.Int("display-height")); err != nil {
			return err
		}
	}

	name := c.String("out")
	if name == "" {
		st, err := openStore(c)
		if err != nil {
			return err
		}
		if name, err = st.SaveImage(out); err != nil {
			return err
		}
	} else {
		bs, err := codec.PNGBytes(out)
		if err != nil {
			return err
		}
		if err := afero.WriteFile(osFs, name, bs, 0644); err != nil {
			return err
		}
	}

	logger.With(zap.String("out", name), zap.Int("colors", len(colors))).Debug("processed")
	fmt.Fprintln(c.App.Writer, name)
	return nil
}

func paletteFile(c *cli.Context) string {
	return c.String("file")
}

// editPalette loads the palette file, missing counts as empty, applies fn and writes it back.
func editPalette(c *cli.Context, fn func(l *palette.List) error) error {
	name := paletteFile(c)

	l := palette.NewList()
	if exists, err := afero.Exists(osFs, name); err != nil {
		return err
	} else if exists {
		p, err := readPaletteFile(name)
		if err != nil {
			return err
		}
		l.Replace(p)
	}

	if err := fn(l); err != nil {
		return err
	}

	if err := writePaletteFile(name, l.Colors()); err != nil {
		return err
	}
	printPalette(c.App.Writer, l.Colors())
	return nil
}

func printPalette(w io.Writer, p pixel.Palette) {
	for i, c := range p {
		fmt.Fprintf(w, "#%d\t%s\t%s\n", i+1, palette.Hex(c), c)
	}
}

func paletteShow(c *cli.Context) error {
	p, err := readPaletteFile(paletteFile(c))
	if err != nil {
		return err
	}
	printPalette(c.App.Writer, p)
	return nil
}

func paletteAdd(c *cli.Context) error {
	colors, err := palette.ParseList(strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	return editPalette(c, func(l *palette.List) error {
		for _, col := range colors {
			if !l.Add(col) {
				logger.With(zap.String("color", palette.Hex(col))).Debug("already in palette")
			}
		}
		return nil
	})
}

func paletteRemove(c *cli.Context) error {
	return editPalette(c, func(l *palette.List) error {
		indexes, err := removalIndexes(l.Colors(), c.Args().Slice())
		if err != nil {
			return err
		}
		for _, i := range indexes {
			if err := l.RemoveAt(i); err != nil {
				return err
			}
		}
		return nil
	})
}

// removalIndexes resolves colors and 1-based "#n" references against p as it
// was shown, without duplicates and in descending order.
func removalIndexes(p pixel.Palette, args []string) ([]int, error) {
	var indexes []int
	for _, arg := range args {
		if strings.HasPrefix(arg, "#") {
			if n, err := strconv.Atoi(arg[1:]); err == nil && n >= 1 && n <= len(p) {
				indexes = append(indexes, n-1)
				continue
			}
		}

		col, err := palette.Parse(arg)
		if err != nil {
			return nil, err
		}
		i := lo.IndexOf(p, col)
		if i < 0 {
			return nil, fmt.Errorf("remove %s: %w", palette.Hex(col), palette.ErrNotFound)
		}
		indexes = append(indexes, i)
	}

	indexes = lo.Uniq(indexes)
	sort.Sort(sort.Reverse(sort.IntSlice(indexes)))
	return indexes, nil
}

func paletteClear(c *cli.Context) error {
	return editPalette(c, func(l *palette.List) error {
		l.Clear()
		return nil
	})
}

func paletteExtract(c *cli.Context) error {
	img, err := loadSource(c.Args().First())
	if err != nil {
		return err
	}

	p, err := palette.Extract(img, c.Int("colors"), palette.Method(c.String("method")))
	if err != nil {
		return err
	}
	palette.SortByBrightness(p)

	if c.Bool("save") {
		st, err := openStore(c)
		if err != nil {
			return err
		}
		name, err := st.SavePalette(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, name)
	} else if err := writePaletteFile(paletteFile(c), p); err != nil {
		return err
	}

	printPalette(c.App.Writer, p)
	return nil
}

func next(c *cli.Context) error {
	var dir, prefix, suffix string
	switch kind := c.Args().First(); kind {
	case "palette":
		dir, prefix, suffix = c.String("palette-dir"), "palette", ".json"
	case "image", "img":
		dir, prefix, suffix = c.String("image-dir"), "img", ".png"
	default:
		return fmt.Errorf("unknown kind %q, want palette or image", kind)
	}

	n, err := store.NextIndex(osFs, filepath.Join(c.String("workdir"), dir), prefix, suffix)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, filepath.Join(dir, fmt.Sprintf("%s%d%s", prefix, n, suffix)))
	return nil
}
