package storage

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs under a base directory. Keys are cleaned and must stay
// inside the base; anything trying to escape fails with ErrBadKey.
type FSStore struct{ base string }

var ErrBadKey = errors.New("storage: invalid key")

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) resolve(key string) (string, string, error) {
	key = path.Clean("/" + key)[1:]
	if key == "" || key == "." || strings.HasPrefix(key, "..") {
		return "", "", ErrBadKey
	}
	return key, filepath.Join(s.base, filepath.FromSlash(key)), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	key, dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	_, p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) Delete(key string) error {
	_, p, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// URL returns the serving path for a key, relative to the assets route.
func (s *FSStore) URL(key string) string {
	return "/assets/" + key
}
