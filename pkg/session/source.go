package session

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/spf13/afero"

	"pixeler/internal/codec"
)

func newFile(name, path string, fs afero.Fs) *Source {
	return &Source{name: name, fs: fs, path: path}
}

func newBytes(name string, bs []byte) *Source {
	return &Source{name: name, bytes: bs}
}

// OpenSource reads name from fs on every use, so a reload sees the file as it is now.
func OpenSource(fs afero.Fs, name string) *Source {
	return newFile(name, name, fs)
}

// Source is a selected input image that can be read again for a reload.
type Source struct {
	sync.Mutex
	name  string
	fs    afero.Fs
	path  string
	bytes []byte
	freed bool
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) IsFile() bool {
	return s.fs != nil
}

func (s *Source) Free() error {
	s.Lock()
	defer s.Unlock()

	if s.freed || s.fs == nil {
		return nil
	}

	if err := s.fs.Remove(s.path); err != nil {
		return err
	}

	s.freed = true
	return nil
}

func (s *Source) Bytes() ([]byte, error) {
	if len(s.bytes) > 0 {
		return s.bytes, nil
	}

	if s.fs == nil {
		return nil, errors.New("no file to read")
	}

	bs, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("source read failed: %w", err)
	}
	return bs, nil
}

// Load returns the decoded image and a digest of the encoded bytes.
func (s *Source) Load() (image.Image, string, error) {
	bs, err := s.Bytes()
	if err != nil {
		return nil, "", err
	}

	img, err := codec.DecodeBytes(bs)
	if err != nil {
		return nil, "", err
	}

	sum := sha1.Sum(bs)
	return img, hex.EncodeToString(sum[:]), nil
}
