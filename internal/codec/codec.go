package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixeler/pkg/pixel"
)

// Decode reads any registered format, applies EXIF orientation and drops alpha.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	return pixel.Opaque(img), nil
}

func DecodeBytes(bs []byte) (*image.NRGBA, error) {
	return Decode(bytes.NewReader(bs))
}

func Open(fs afero.Fs, name string) (*image.NRGBA, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return Decode(f)
}

func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Supported reports whether the file name looks like a readable image.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".webp":
		return true
	}
	_, err := imaging.FormatFromFilename(name)
	return err == nil
}
