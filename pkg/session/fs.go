package session

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/spf13/afero"
)

func newFs(path string) (afero.Fs, error) {
	fs := afero.NewOsFs()
	if exists, err := afero.DirExists(fs, path); err != nil {
		return nil, err
	} else if !exists {
		return nil, errors.New("dir not exists")
	}
	return afero.NewBasePathFs(fs, path), nil
}

func NewTmpFs(dir string) (*TmpFs, error) {
	t := &TmpFs{}

	if dir == "" {
		return t, nil
	}

	if fs, err := newFs(dir); err != nil {
		return nil, fmt.Errorf("create tmpdir failed: %w", err)
	} else {
		t.fs = fs
	}

	return t, nil
}

// TmpFs keeps received sources on disk when a tmp dir is configured,
// in memory otherwise.
type TmpFs struct {
	fs afero.Fs
}

func (t *TmpFs) Put(name string, bs []byte) (*Source, error) {
	if t.fs == nil {
		return newBytes(name, bs), nil
	}

	file := xid.New().String()
	if err := afero.WriteFile(t.fs, file, bs, 0644); err != nil {
		return nil, fmt.Errorf("write tmp file failed: %w", err)
	}
	return newFile(name, file, t.fs), nil
}
