package ports

// BlobStore holds in-memory file contents behind object URLs.
type BlobStore interface {
	// CreateObjectURL stores data and returns a new URL for it.
	CreateObjectURL(data []byte) string

	// RevokeObjectURL releases the data behind url. Unknown URLs are ignored.
	RevokeObjectURL(url string)

	// Fetch returns the data behind url, or ErrBlobNotFound.
	Fetch(url string) (data []byte, contentType string, err error)
}
