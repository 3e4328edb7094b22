package storage

import (
	"context"
	"io"
)

// Store is the blob storage capability handlers receive. The database holds
// the metadata; the store only holds the bytes.
type Store interface {
	// Save uploads the object and returns its public URL.
	Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Delete removes the object. Callers treat failures as best effort.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for a stored key.
	URL(key string) string
}
