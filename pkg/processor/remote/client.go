package remote

import (
	"image"
	"net/rpc"
	"strings"

	"github.com/pkg/errors"

	"pixeler/internal/codec"
	"pixeler/pkg/pixel"
	"pixeler/pkg/proto"
)

func New(addr string) (proto.Processor, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{rpc: client}, nil
}

type Client struct {
	rpc *rpc.Client
}

func (c *Client) Process(img image.Image, size int, palette pixel.Palette) (image.Image, error) {
	bs, err := codec.PNGBytes(img)
	if err != nil {
		return nil, err
	}

	var resp ProcessResponse
	if err := c.rpc.Call("Service.Process", &ProcessRequest{
		Image:   bs,
		Size:    size,
		Palette: palette,
	}, &resp); err != nil {
		return nil, remoteError(err)
	}

	return codec.DecodeBytes(resp.Image)
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

// remoteError restores the argument sentinel lost in the string-only rpc error.
func remoteError(err error) error {
	var se rpc.ServerError
	if errors.As(err, &se) && strings.Contains(string(se), pixel.ErrInvalidArgument.Error()) {
		return errors.Wrap(pixel.ErrInvalidArgument, string(se))
	}
	return err
}
