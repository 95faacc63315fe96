package session

import (
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pixeler/internal/codec"
	"pixeler/pkg/config"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
	"pixeler/pkg/processor/local"
	"pixeler/pkg/store"
)

func sample(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 0xff})
		}
	}
	return img
}

func samplePNG(t *testing.T, w, h int) []byte {
	bs, err := codec.PNGBytes(sample(w, h))
	require.NoError(t, err)
	return bs
}

type fixture struct {
	cfg     *config.Config
	params  *Params
	history *History
	store   *store.Store
	conv    *Converter
}

func newFixture() *fixture {
	return newFixtureHistory(3)
}

func newFixtureHistory(max int) *fixture {
	cfg := config.Default()
	f := &fixture{
		cfg:     cfg,
		params:  NewParams(cfg),
		history: NewHistory(max),
		store:   store.New(afero.NewMemMapFs(), store.Options{}, zap.NewNop()),
	}
	f.conv = NewConverter(local.New(zap.NewNop()), cfg, f.params, f.store, &Cache{fs: afero.NewMemMapFs()}, f.history, zap.NewNop())
	return f
}

func TestParamsSize(t *testing.T) {
	p := NewParams(config.Default())
	assert.Equal(t, 10, p.Size())
	assert.Equal(t, 1, p.SetSize(0))
	assert.Equal(t, 50, p.SetSize(99))
	assert.Equal(t, 7, p.SetSize(7))
	assert.Equal(t, 7, p.Size())
}

func TestParamsPalette(t *testing.T) {
	p := NewParams(config.Default())
	assert.Empty(t, p.Palette())

	require.NoError(t, p.UpdatePalette(func(l *palette.List) error {
		l.Add(pixel.RGB(1, 2, 3))
		return nil
	}))
	assert.Equal(t, pixel.Palette{pixel.RGB(1, 2, 3)}, p.Palette())

	err := p.UpdatePalette(func(l *palette.List) error {
		return l.Remove(pixel.RGB(9, 9, 9))
	})
	assert.True(t, errors.Is(err, palette.ErrNotFound))
}

func TestHistory(t *testing.T) {
	h := NewHistory(2)
	assert.Nil(t, h.Curr())
	assert.Nil(t, h.Prev())

	a, b, c := &Result{Size: 1}, &Result{Size: 2}, &Result{Size: 3}
	assert.Nil(t, h.Push(a))
	assert.Same(t, a, h.Curr())
	assert.Nil(t, h.Prev())

	assert.Nil(t, h.Push(b))
	assert.Same(t, b, h.Curr())
	assert.Same(t, a, h.Prev(), "two results")

	assert.Same(t, a, h.Push(c))
	assert.Equal(t, []*Result{b, c}, h.Logs())
	assert.Same(t, c, h.Curr())
	assert.Same(t, b, h.Prev())
}

func TestHistoryHolds(t *testing.T) {
	h := NewHistory(1)
	first, second := newBytes("a", nil), newBytes("b", nil)

	h.Push(&Result{Source: first})
	assert.True(t, h.Holds(first))

	dropped := h.Push(&Result{Source: second})
	assert.Same(t, first, dropped.source())
	assert.False(t, h.Holds(first))
	assert.True(t, h.Holds(second))

	var none *Result
	assert.Nil(t, none.source())
}

func TestSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	bs := samplePNG(t, 4, 4)
	require.NoError(t, afero.WriteFile(fs, "in.png", bs, 0644))

	src := OpenSource(fs, "in.png")
	assert.True(t, src.IsFile())

	img, digest, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	_, digest2, err := newBytes("mem", bs).Load()
	require.NoError(t, err)
	assert.Equal(t, digest, digest2)

	require.NoError(t, src.Free())
	require.NoError(t, src.Free())
	_, err = src.Bytes()
	assert.Error(t, err)
}

func TestTmpFs(t *testing.T) {
	mem := &TmpFs{}
	src, err := mem.Put("a.png", []byte("x"))
	require.NoError(t, err)
	assert.False(t, src.IsFile())

	disk := &TmpFs{fs: afero.NewMemMapFs()}
	src, err = disk.Put("a.png", []byte("x"))
	require.NoError(t, err)
	assert.True(t, src.IsFile())
	assert.Equal(t, "a.png", src.Name())

	bs, err := src.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), bs)
}

func TestCache(t *testing.T) {
	c := &Cache{fs: afero.NewMemMapFs()}
	p := pixel.Palette{pixel.RGB(0, 0, 0)}

	exists, _, err := c.LoadImage("abc", 2, p)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.SaveImage("abc", 2, p, sample(4, 4)))

	exists, img, err := c.LoadImage("abc", 2, p)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	for _, miss := range []struct {
		size int
		p    pixel.Palette
	}{{3, p}, {2, nil}, {2, pixel.Palette{pixel.RGB(1, 1, 1)}}} {
		exists, _, err = c.LoadImage("abc", miss.size, miss.p)
		require.NoError(t, err)
		assert.False(t, exists)
	}

	// without a dir the cache is a no-op
	off := &Cache{}
	require.NoError(t, off.SaveImage("abc", 2, p, sample(4, 4)))
	exists, _, err = off.LoadImage("abc", 2, p)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConverterSelectReload(t *testing.T) {
	f := newFixture()

	_, err := f.conv.Reload()
	assert.True(t, errors.Is(err, ErrNoSource))

	f.params.SetSize(2)
	res, err := f.conv.Select(newBytes("in.png", samplePNG(t, 5, 5)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), res.Image.Bounds())
	assert.False(t, res.Cached)

	require.NoError(t, f.params.UpdatePalette(func(l *palette.List) error {
		l.Add(pixel.RGB(0, 0, 0))
		return nil
	}))
	res, err = f.conv.Reload()
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, color.NRGBA{A: 0xff}, res.Image.At(x, y))
		}
	}

	res, err = f.conv.Reload()
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Len(t, f.history.Logs(), 3)
}

func TestConverterReleasesDroppedSources(t *testing.T) {
	f := newFixtureHistory(2)
	f.params.SetSize(2)
	tmp := &TmpFs{fs: afero.NewMemMapFs()}

	put := func(name string) *Source {
		src, err := tmp.Put(name, samplePNG(t, 4, 4))
		require.NoError(t, err)
		return src
	}

	first, second, third := put("a.png"), put("b.png"), put("c.png")

	_, err := f.conv.Select(first)
	require.NoError(t, err)
	_, err = f.conv.Select(second)
	require.NoError(t, err)

	// still reachable through the history
	_, err = first.Bytes()
	require.NoError(t, err)

	_, err = f.conv.Select(third)
	require.NoError(t, err)

	_, err = first.Bytes()
	assert.Error(t, err)
	_, err = second.Bytes()
	assert.NoError(t, err)
	assert.Same(t, third, f.params.Source())

	f.conv.Close()
	assert.Nil(t, f.params.Source())
	for _, src := range []*Source{second, third} {
		_, err = src.Bytes()
		assert.Error(t, err)
	}
}

func TestConverterPrevRestoresSource(t *testing.T) {
	f := newFixture()
	f.params.SetSize(2)
	tmp := &TmpFs{fs: afero.NewMemMapFs()}

	first, err := tmp.Put("a.png", samplePNG(t, 4, 4))
	require.NoError(t, err)
	second, err := tmp.Put("b.png", samplePNG(t, 8, 8))
	require.NoError(t, err)

	_, err = f.conv.Select(first)
	require.NoError(t, err)
	f.params.SetSize(4)
	_, err = f.conv.Select(second)
	require.NoError(t, err)

	res, err := f.conv.Prev()
	require.NoError(t, err)
	assert.Same(t, first, res.Source)
	assert.Same(t, first, f.params.Source())
	assert.Equal(t, 2, f.params.Size())

	res, err = f.conv.Reload()
	require.NoError(t, err)
	assert.Same(t, first, res.Source)
	assert.Equal(t, image.Rect(0, 0, 4, 4), res.Image.Bounds())
}

func TestConverterSelectInvalid(t *testing.T) {
	f := newFixture()
	f.params.SetSize(10)

	_, err := f.conv.Select(newBytes("tiny.png", samplePNG(t, 4, 4)))
	assert.True(t, errors.Is(err, pixel.ErrInvalidArgument))
	assert.Nil(t, f.params.Source())
	assert.Nil(t, f.history.Curr())

	_, err = f.conv.Select(newBytes("junk", []byte("junk")))
	assert.Error(t, err)
}

func TestConverterSaveAndPrev(t *testing.T) {
	f := newFixture()

	_, err := f.conv.Save()
	assert.True(t, errors.Is(err, ErrNoResult))
	_, err = f.conv.Prev()
	assert.True(t, errors.Is(err, ErrNoResult))

	f.params.SetSize(2)
	_, err = f.conv.Select(newBytes("in.png", samplePNG(t, 8, 8)))
	require.NoError(t, err)

	name, err := f.conv.Save()
	require.NoError(t, err)
	assert.Equal(t, "img/img1.png", name)

	f.params.SetSize(4)
	_, err = f.conv.Reload()
	require.NoError(t, err)

	// select plus one reload leaves exactly two results
	require.Len(t, f.history.Logs(), 2)
	res, err := f.conv.Prev()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Size)
	assert.Equal(t, 2, f.params.Size())
	assert.Same(t, res, f.history.Curr())

	preview, err := f.conv.Preview(res)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 600), preview.Bounds())
}

func TestConverterPalettes(t *testing.T) {
	f := newFixture()

	p, err := f.conv.LoadDefaultPalette()
	require.NoError(t, err)
	assert.Empty(t, p)

	require.NoError(t, afero.WriteFile(f.store.Fs(), f.cfg.DefaultPalette, []byte(`[[0,0,0],[255,255,255]]`), 0644))
	p, err = f.conv.LoadDefaultPalette()
	require.NoError(t, err)
	assert.Len(t, p, 2)
	assert.Equal(t, p, f.params.Palette())

	name, err := f.conv.SavePalette()
	require.NoError(t, err)
	assert.Equal(t, "palette/palette1.json", name)

	require.NoError(t, f.params.UpdatePalette(func(l *palette.List) error {
		l.Clear()
		return nil
	}))
	_, err = f.conv.LoadPalette(name)
	require.NoError(t, err)
	assert.Equal(t, p, f.params.Palette())

	_, err = f.conv.Extract(2, palette.MethodMedianCut)
	assert.True(t, errors.Is(err, ErrNoSource))

	_, err = f.conv.Select(newBytes("in.png", samplePNG(t, 10, 10)))
	require.NoError(t, err)
	p, err = f.conv.Extract(2, palette.MethodMedianCut)
	require.NoError(t, err)
	assert.NotEmpty(t, p)
	assert.Equal(t, p, f.params.Palette())
}

func TestDownloader(t *testing.T) {
	bs := samplePNG(t, 4, 4)
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pic.png" {
			http.NotFound(w, r)
			return
		}
		hits++
		_, _ = w.Write(bs)
	}))
	defer ts.Close()

	d, err := NewDownloader("", zap.NewNop())
	require.NoError(t, err)
	d.fs = afero.NewMemMapFs()

	got, err := d.Get(ts.URL + "/pic.png")
	require.NoError(t, err)
	assert.Equal(t, bs, got)

	got, err = d.Get(ts.URL + "/pic.png")
	require.NoError(t, err)
	assert.Equal(t, bs, got)
	assert.Equal(t, 1, hits)

	_, err = d.Get(ts.URL + "/missing.png")
	assert.Error(t, err)

	_, err = d.Get("ftp://example.com/pic.png")
	assert.Error(t, err)

	src, err := d.Fetch(ts.URL+"/pic.png", &TmpFs{})
	require.NoError(t, err)
	assert.Equal(t, "pic.png", src.Name())
}

func TestDownloaderDistinctURLs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.RequestURI()))
	}))
	defer ts.Close()

	d, err := NewDownloader("", zap.NewNop())
	require.NoError(t, err)
	d.fs = afero.NewMemMapFs()

	for _, uri := range []string{"/a/pic.png", "/b/pic.png", "/img?id=2", "/img?id=3", "/"} {
		// twice, the second read comes from disk
		for i := 0; i < 2; i++ {
			got, err := d.Get(ts.URL + uri)
			require.NoError(t, err)
			assert.Equal(t, uri, string(got))
		}
	}

	src, err := d.Fetch(ts.URL+"/", &TmpFs{})
	require.NoError(t, err)
	assert.NotEqual(t, "/", src.Name())
}

func TestFormatPalette(t *testing.T) {
	assert.Contains(t, formatPalette(nil), "empty")
	assert.Equal(t, "#1 #ff0000 (255, 0, 0)\n#2 #000000 (0, 0, 0)",
		formatPalette(pixel.Palette{pixel.RGB(255, 0, 0), pixel.RGB(0, 0, 0)}))
}

func TestRemoveColor(t *testing.T) {
	l := palette.NewList(pixel.RGB(255, 0, 0), pixel.RGB(0, 0, 0), pixel.RGB(255, 255, 255))

	require.NoError(t, removeColor(l, "#2"))
	assert.Equal(t, pixel.Palette{pixel.RGB(255, 0, 0), pixel.RGB(255, 255, 255)}, l.Colors())

	require.NoError(t, removeColor(l, "#fff"))
	require.NoError(t, removeColor(l, "red"))
	assert.Equal(t, 0, l.Len())

	assert.Error(t, removeColor(l, ""))
	assert.True(t, errors.Is(removeColor(l, "blue"), palette.ErrNotFound))
}

func TestParseExtract(t *testing.T) {
	k, m, err := parseExtract("")
	require.NoError(t, err)
	assert.Equal(t, 8, k)
	assert.Equal(t, palette.MethodKMeans, m)

	k, m, err = parseExtract("4 palettor")
	require.NoError(t, err)
	assert.Equal(t, 4, k)
	assert.Equal(t, palette.MethodPalettor, m)

	_, _, err = parseExtract("octree")
	assert.Error(t, err)
}
