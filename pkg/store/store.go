package store

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"pixeler/internal/codec"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
)

// NextIndex scans dir for <prefix><n><suffix> names and returns the largest
// n plus one, or 1 when there is none. A missing dir counts as empty and
// negative numbers are ignored.
func NextIndex(fs afero.Fs, dir, prefix, suffix string) (int, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, err
	}

	var numbers []int
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || len(name) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		n, err := strconv.Atoi(name[len(prefix) : len(name)-len(suffix)])
		if err != nil || n < 0 {
			continue
		}
		numbers = append(numbers, n)
	}

	if len(numbers) == 0 {
		return 1, nil
	}
	return lo.Max(numbers) + 1, nil
}

type Options struct {
	PaletteDir string
	ImageDir   string
}

func New(fs afero.Fs, opts Options, logger *zap.Logger) *Store {
	return &Store{
		fs:         fs,
		paletteDir: lo.Ternary(opts.PaletteDir == "", "palette", opts.PaletteDir),
		imageDir:   lo.Ternary(opts.ImageDir == "", "img", opts.ImageDir),
		log:        logger,
	}
}

// NewOs roots a store at dir on the local disk, creating it when needed.
func NewOs(dir string, opts Options, logger *zap.Logger) (*Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store failed: %w", err)
	}
	return New(afero.NewBasePathFs(osFs, dir), opts, logger), nil
}

type Store struct {
	fs         afero.Fs
	paletteDir string
	imageDir   string
	log        *zap.Logger
}

func (s *Store) Fs() afero.Fs {
	return s.fs
}

func (s *Store) next(dir, prefix, suffix string) (string, error) {
	if exists, err := afero.DirExists(s.fs, dir); err != nil {
		return "", err
	} else if !exists {
		if err2 := s.fs.MkdirAll(dir, 0755); err2 != nil {
			return "", err2
		}
	}

	n, err := NextIndex(s.fs, dir, prefix, suffix)
	if err != nil {
		return "", err
	}
	return path.Join(dir, fmt.Sprintf("%s%d%s", prefix, n, suffix)), nil
}

// NextImageName is the name SaveImage would use.
func (s *Store) NextImageName() (string, error) {
	return s.next(s.imageDir, "img", ".png")
}

// SavePalette writes p to palette/palette<n>.json and returns the file name.
func (s *Store) SavePalette(p pixel.Palette) (string, error) {
	file, err := s.next(s.paletteDir, "palette", ".json")
	if err != nil {
		return "", fmt.Errorf("save palette failed: %w", err)
	}

	bs, err := palette.Marshal(p)
	if err != nil {
		return "", err
	}

	if err := afero.WriteFile(s.fs, file, bs, 0644); err != nil {
		return "", fmt.Errorf("save palette failed: %w", err)
	}

	s.log.With(zap.String("file", file), zap.Int("colors", len(p))).Debug("palette saved")
	return file, nil
}

// SaveImage writes img to img/img<n>.png and returns the file name.
func (s *Store) SaveImage(img image.Image) (string, error) {
	file, err := s.NextImageName()
	if err != nil {
		return "", fmt.Errorf("save image failed: %w", err)
	}

	var buf bytes.Buffer
	if err := codec.EncodePNG(&buf, img); err != nil {
		return "", fmt.Errorf("encode image failed: %w", err)
	}

	if err := afero.WriteFile(s.fs, file, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("save image failed: %w", err)
	}

	s.log.With(zap.String("file", file), zap.Int("bytes", buf.Len())).Debug("image saved")
	return file, nil
}

func (s *Store) LoadPalette(name string) (pixel.Palette, error) {
	bs, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return nil, fmt.Errorf("load palette failed: %w", err)
	}

	p, err := palette.Unmarshal(bs)
	if err != nil {
		return nil, fmt.Errorf("load palette %s failed: %w", name, err)
	}
	return p, nil
}

// LoadDefaultPalette is LoadPalette, except a missing file is an empty palette.
func (s *Store) LoadDefaultPalette(name string) (pixel.Palette, error) {
	if exists, err := afero.Exists(s.fs, name); err != nil {
		return nil, err
	} else if !exists {
		return pixel.Palette{}, nil
	}
	return s.LoadPalette(name)
}

// Palettes lists the saved palette files.
func (s *Store) Palettes() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.paletteDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := lo.Filter(infos, func(info os.FileInfo, _ int) bool {
		return !info.IsDir() && strings.HasSuffix(info.Name(), ".json")
	})
	return lo.Map(names, func(info os.FileInfo, _ int) string {
		return path.Join(s.paletteDir, info.Name())
	}), nil
}
