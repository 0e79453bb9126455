// Package upload validates image uploads and hands them to a storage
// backend: the local filesystem or a Google Cloud Storage bucket.
package upload

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

var ErrInvalidID = errors.New("invalid upload id")

// Storage persists opaque objects under generated ids.
type Storage interface {
	Save(ctx context.Context, id, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, id string) error
	// ID maps a public URL back to the object id. It reports false for URLs
	// this backend did not produce.
	ID(url string) (string, bool)
	Backend() string
}

func joinURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + id
}

func idFromURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if base == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(url, prefix)
	if !validID(id) {
		return "", false
	}
	return id, true
}

// validID accepts generated names only: no separators, no dot segments.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.HasPrefix(id, ".")
}
