package session

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/go-resty/resty/v2"
	"github.com/inhies/go-bytesize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func NewDownloader(dir string, logger *zap.Logger) (*Downloader, error) {
	d := &Downloader{
		cli: resty.New().SetDoNotParseResponse(true),
		log: logger,
	}

	if dir == "" {
		return d, nil
	}

	if fs, err := newFs(dir); err != nil {
		return nil, fmt.Errorf("create downloader failed: %w", err)
	} else {
		d.fs = fs
	}

	return d, nil
}

// Downloader fetches source images by URL. With a dir configured every
// download is kept there and served again on the next request.
type Downloader struct {
	fs  afero.Fs
	cli *resty.Client
	log *zap.Logger
}

// filename keys a download by its full url, keeping the path's extension.
func (d *Downloader) filename(u *url.URL) string {
	sum := sha1.Sum([]byte(u.String()))
	return fmt.Sprintf("%s/%s%s", u.Host, hex.EncodeToString(sum[:]), path.Ext(u.Path))
}

func (d *Downloader) Get(link string) ([]byte, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	if d.fs != nil {
		file := d.filename(u)
		if exists, err := afero.Exists(d.fs, file); err != nil {
			return nil, err
		} else if exists {
			return afero.ReadFile(d.fs, file)
		}
	}

	resp, err := d.cli.R().Get(link)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.RawBody().Close()
	}()

	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("download %s failed: %s", link, resp.Status())
	}

	bar := progressbar.DefaultBytes(resp.RawResponse.ContentLength, fmt.Sprintf("Downloading %s", link))

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), resp.RawBody()); err != nil {
		return nil, err
	}

	d.log.With(
		zap.String("url", link),
		zap.String("size", bytesize.New(float64(buf.Len())).String()),
	).Debug("downloaded")

	if d.fs != nil {
		if err := d.save(u, buf.Bytes()); err != nil {
			d.log.With(zap.String("url", link), zap.Error(err)).Info("keep download failed")
		}
	}

	return buf.Bytes(), nil
}

func (d *Downloader) save(u *url.URL, bs []byte) error {
	if exists, err := afero.DirExists(d.fs, u.Host); err != nil {
		return err
	} else if !exists {
		if err2 := d.fs.MkdirAll(u.Host, 0755); err2 != nil {
			return err2
		}
	}

	return afero.WriteFile(d.fs, d.filename(u), bs, 0644)
}

// Fetch downloads link as a source named after the url path.
func (d *Downloader) Fetch(link string, tmp *TmpFs) (*Source, error) {
	bs, err := d.Get(link)
	if err != nil {
		return nil, err
	}

	u, _ := url.Parse(link)
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = u.Host
	}
	return tmp.Put(name, bs)
}
