package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores uploads as objects in a Google Cloud Storage bucket.
type GCS struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

var _ Storage = (*GCS)(nil)

// NewGCS connects with the service account in credentialsFile, or with the
// application default credentials when it is empty.
func NewGCS(ctx context.Context, bucket, credentialsFile, publicBaseURL string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, baseURL: publicBaseURL}, nil
}

func (g *GCS) Save(ctx context.Context, id, contentType string, r io.Reader) (string, error) {
	if !validID(id) {
		return "", ErrInvalidID
	}
	w := g.client.Bucket(g.bucket).Object(id).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", id, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", id, err)
	}
	return joinURL(g.baseURL, id), nil
}

func (g *GCS) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrInvalidID
	}
	err := g.client.Bucket(g.bucket).Object(id).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func (g *GCS) ID(url string) (string, bool) {
	return idFromURL(g.baseURL, url)
}

func (g *GCS) Backend() string { return BackendGCS }

func (g *GCS) Close() error {
	return g.client.Close()
}
