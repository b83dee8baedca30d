package storage

import "io"

// BlobStore holds uploaded binary content: question illustrations
// referenced from course structure and task proof images attached to
// entry submissions. Keys are slash-separated paths chosen by callers.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
