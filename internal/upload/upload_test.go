package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/config"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

const baseURL = "http://localhost:8080/uploads"

func testConfig(dir string) config.UploadConfig {
	return config.UploadConfig{
		Dir:          dir,
		BaseURL:      baseURL,
		MaxBytes:     1024,
		MaxFiles:     2,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := NewLocal(dir, baseURL)
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(local, testConfig(dir), log), dir
}

func fileHeader(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "got %v", err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
}

func TestSaveStoresSniffedImage(t *testing.T) {
	svc, dir := newService(t)

	file, err := svc.Save(context.Background(), 7, fileHeader(t, "cat.png", "image/png", pngBytes))
	require.NoError(t, err)

	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, ".png", filepath.Ext(file.ID))
	owner, ok := OwnerOf(file.ID)
	require.True(t, ok)
	assert.Equal(t, int64(7), owner)
	assert.Equal(t, baseURL+"/"+file.ID, file.URL)
	assert.Equal(t, "cat.png", file.OriginalName)

	stored, err := os.ReadFile(filepath.Join(dir, file.ID))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)
}

func TestValidateRejects(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name string
		fh   *multipart.FileHeader
	}{
		{"declared type not allowed", fileHeader(t, "doc.pdf", "application/pdf", pngBytes)},
		{"too large", fileHeader(t, "big.png", "image/png", append(pngBytes, make([]byte, 2048)...))},
		{"content is not an image", fileHeader(t, "fake.png", "image/png", []byte("hello, plain text"))},
		{"empty", fileHeader(t, "empty.png", "image/png", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.fh)
			assertValidation(t, err)
		})
	}
}

func TestSaveManyLimits(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()

	_, err := svc.SaveMany(ctx, 1, nil)
	assertValidation(t, err)

	three := []*multipart.FileHeader{
		fileHeader(t, "a.png", "image/png", pngBytes),
		fileHeader(t, "b.png", "image/png", pngBytes),
		fileHeader(t, "c.png", "image/png", pngBytes),
	}
	_, err = svc.SaveMany(ctx, 1, three)
	assertValidation(t, err)

	mixed := []*multipart.FileHeader{
		fileHeader(t, "a.png", "image/png", pngBytes),
		fileHeader(t, "b.txt", "text/plain", []byte("nope")),
	}
	_, err = svc.SaveMany(ctx, 1, mixed)
	assertValidation(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is stored when any file is invalid")

	files, err := svc.SaveMany(ctx, 1, three[:2])
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotEqual(t, files[0].ID, files[1].ID)
}

func TestReleaseIsBestEffort(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()

	file, err := svc.Save(ctx, 1, fileHeader(t, "cat.png", "image/png", pngBytes))
	require.NoError(t, err)

	svc.Release(ctx, 1, "https://elsewhere.example.com/cat.png")
	svc.Release(ctx, 1, "")
	svc.Release(ctx, 2, file.URL)
	_, err = os.Stat(filepath.Join(dir, file.ID))
	require.NoError(t, err, "foreign URLs and other users' files are left alone")

	svc.Release(ctx, 1, file.URL)
	_, err = os.Stat(filepath.Join(dir, file.ID))
	assert.True(t, os.IsNotExist(err))

	assert.NotPanics(t, func() {
		svc.Release(ctx, 1, file.URL)
	})
}

func TestRemoveChecksUploader(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()

	file, err := svc.Save(ctx, 1, fileHeader(t, "cat.png", "image/png", pngBytes))
	require.NoError(t, err)

	var appErr *apperror.Error
	err = svc.Remove(ctx, 2, file.ID)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindForbidden, appErr.Kind)
	_, err = os.Stat(filepath.Join(dir, file.ID))
	require.NoError(t, err)

	for _, id := range []string{"../etc/passwd", "cat.png", "abc-def.png", "0-x.png"} {
		err = svc.Remove(ctx, 1, id)
		require.True(t, errors.As(err, &appErr), id)
		assert.Equal(t, apperror.KindNotFound, appErr.Kind, id)
	}

	require.NoError(t, svc.Remove(ctx, 1, file.ID))
	_, err = os.Stat(filepath.Join(dir, file.ID))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, svc.Remove(ctx, 1, file.ID), "deleting twice is fine")
}

func TestOwnerOf(t *testing.T) {
	tests := []struct {
		id    string
		owner int64
		ok    bool
	}{
		{objectID(42, "0b1c", ".png"), 42, true},
		{"42-0b1c-99aa.webp", 42, true},
		{"0b1c.png", 0, false},
		{"42-", 0, false},
		{"-5-x.png", 0, false},
		{"42/x.png", 0, false},
	}
	for _, tt := range tests {
		owner, ok := OwnerOf(tt.id)
		assert.Equal(t, tt.ok, ok, tt.id)
		assert.Equal(t, tt.owner, owner, tt.id)
	}
}

func TestIDFromURL(t *testing.T) {
	id, ok := idFromURL(baseURL, baseURL+"/abc.png")
	assert.True(t, ok)
	assert.Equal(t, "abc.png", id)

	_, ok = idFromURL(baseURL, baseURL+"/nested/abc.png")
	assert.False(t, ok)
	_, ok = idFromURL(baseURL, baseURL+"/..")
	assert.False(t, ok)
	_, ok = idFromURL("", "/abc.png")
	assert.False(t, ok)
}

func TestLimits(t *testing.T) {
	svc, _ := newService(t)
	limits := svc.Limits()
	assert.Equal(t, BackendLocal, limits.Backend)
	assert.Equal(t, int64(1024), limits.MaxBytes)
	assert.Equal(t, 2, limits.MaxFiles)
	assert.Contains(t, limits.AllowedTypes, "image/webp")
}
