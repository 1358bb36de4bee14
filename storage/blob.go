// Package storage keeps uploaded claim documents outside the database.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// BlobStore writes, reads and removes document bytes by key.
type BlobStore interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// DocumentKey returns claims/<claimID>/<category>/<documentID><ext>.
func DocumentKey(claimID, category, documentID, ext string) string {
	return path.Join("claims", claimID, category, documentID+strings.ToLower(ext))
}
