package storage

import "io"

// BlobStore holds question images. Keys are opaque relative paths chosen by
// the caller; Put returns the canonical key to persist on the question.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error)
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	URL(key string) string
}
