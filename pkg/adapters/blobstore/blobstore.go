// Package blobstore provides an in-memory ports.BlobStore.
package blobstore

import (
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/segmentio/ksuid"

	"github.com/user/bgswap/pkg/ports"
)

// Scheme prefixes every object URL.
const Scheme = "blob:"

type blob struct {
	data        []byte
	contentType string
}

// Store keeps blobs until their URL is revoked.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// New creates an empty store.
func New() *Store {
	return &Store{blobs: make(map[string]blob)}
}

// CreateObjectURL stores data under a new unique URL. The content type is
// sniffed and recorded but never enforced.
func (s *Store) CreateObjectURL(data []byte) string {
	url := Scheme + ksuid.New().String()
	b := blob{
		data:        append([]byte(nil), data...),
		contentType: mimetype.Detect(data).String(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[url] = b
	return url
}

// RevokeObjectURL drops the blob. Unknown URLs are ignored.
func (s *Store) RevokeObjectURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, url)
}

// Fetch returns the blob behind url.
func (s *Store) Fetch(url string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[url]
	if !ok {
		return nil, "", ports.ErrBlobNotFound
	}
	return b.data, b.contentType, nil
}

// Len returns the number of live blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ ports.BlobStore = (*Store)(nil)
