package remote

import (
	"image"
	"image/color"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pixeler/pkg/pixel"
	"pixeler/pkg/processor/local"
)

func serve(t *testing.T) *Client {
	handler, err := Handler(local.New(zap.NewNop()), zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	proc, err := New(strings.TrimPrefix(ts.URL, "http://"))
	require.NoError(t, err)

	client := proc.(*Client)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRemoteProcess(t *testing.T) {
	client := serve(t)

	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: 200, B: 10, A: 0xff})
		}
	}
	palette := pixel.Palette{pixel.RGB(0, 0, 0), pixel.RGB(0, 255, 0)}

	want, err := pixel.Process(img, 2, palette)
	require.NoError(t, err)

	got, err := client.Process(img, 2, palette)
	require.NoError(t, err)
	assert.Equal(t, want.Bounds(), got.Bounds())
	assert.Equal(t, want.Pix, got.(*image.NRGBA).Pix)
}

func TestRemoteProcessNoPalette(t *testing.T) {
	client := serve(t)

	got, err := client.Process(image.NewNRGBA(image.Rect(0, 0, 5, 5)), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
}

func TestRemoteInvalidArgument(t *testing.T) {
	client := serve(t)

	got, err := client.Process(image.NewNRGBA(image.Rect(0, 0, 3, 3)), 4, nil)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pixel.ErrInvalidArgument))
}
