package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local keeps uploads in a directory that the HTTP server exposes under
// baseURL.
type Local struct {
	dir     string
	baseURL string
}

var _ Storage = (*Local)(nil)

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: baseURL}, nil
}

func (l *Local) Dir() string { return l.dir }

func (l *Local) Save(_ context.Context, id, _ string, r io.Reader) (string, error) {
	if !validID(id) {
		return "", ErrInvalidID
	}
	f, err := os.OpenFile(filepath.Join(l.dir, id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", id, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", id, err)
	}
	return joinURL(l.baseURL, id), nil
}

// Delete is idempotent; a missing file is not an error.
func (l *Local) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return ErrInvalidID
	}
	err := os.Remove(filepath.Join(l.dir, id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func (l *Local) ID(url string) (string, bool) {
	return idFromURL(l.baseURL, url)
}

func (l *Local) Backend() string { return BackendLocal }
