package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/config"
)

// File describes a stored upload.
type File struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	ContentType  string `json:"content_type"`
}

// Limits is what clients need to know before uploading.
type Limits struct {
	AllowedTypes []string `json:"allowed_types"`
	MaxBytes     int64    `json:"max_bytes"`
	MaxFiles     int      `json:"max_files"`
	Backend      string   `json:"backend"`
}

type Service struct {
	storage Storage
	cfg     config.UploadConfig
	log     *logrus.Logger
}

func NewService(storage Storage, cfg config.UploadConfig, log *logrus.Logger) *Service {
	return &Service{storage: storage, cfg: cfg, log: log}
}

// NewStorage picks the backend from configuration: the bucket when one is
// configured, the local directory otherwise.
func NewStorage(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	if cfg.UseRemote() {
		return NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile, cfg.GCSPublicBaseURL)
	}
	return NewLocal(cfg.Dir, cfg.BaseURL)
}

func (s *Service) Limits() Limits {
	return Limits{
		AllowedTypes: s.cfg.AllowedTypes,
		MaxBytes:     s.cfg.MaxBytes,
		MaxFiles:     s.cfg.MaxFiles,
		Backend:      s.storage.Backend(),
	}
}

// Validate checks the declared type, the size and the sniffed content type.
// It returns the sniffed type, which is what gets stored.
func (s *Service) Validate(fh *multipart.FileHeader) (*mimetype.MIME, error) {
	declared := baseType(fh.Header.Get("Content-Type"))
	if !s.allowed(declared) {
		return nil, apperror.Validation(fmt.Sprintf("%s: file type %q is not allowed", fh.Filename, declared))
	}
	if fh.Size <= 0 {
		return nil, apperror.Validation(fh.Filename + ": file is empty")
	}
	if fh.Size > s.cfg.MaxBytes {
		return nil, apperror.Validation(fmt.Sprintf("%s: file exceeds %d bytes", fh.Filename, s.cfg.MaxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("sniff %s: %w", fh.Filename, err)
	}
	if !s.allowed(detected.String()) {
		return nil, apperror.Validation(fmt.Sprintf("%s: content is %s, not an allowed image", fh.Filename, detected.String()))
	}
	return detected, nil
}

// Save stores one file on behalf of owner.
func (s *Service) Save(ctx context.Context, owner int64, fh *multipart.FileHeader) (File, error) {
	detected, err := s.Validate(fh)
	if err != nil {
		return File{}, err
	}
	return s.store(ctx, owner, fh, detected)
}

// SaveMany validates every file before storing any of them. When a later
// store fails, the files already stored are released.
func (s *Service) SaveMany(ctx context.Context, owner int64, fhs []*multipart.FileHeader) ([]File, error) {
	if len(fhs) == 0 {
		return nil, apperror.Validation("no files uploaded")
	}
	if len(fhs) > s.cfg.MaxFiles {
		return nil, apperror.Validation(fmt.Sprintf("at most %d files per upload", s.cfg.MaxFiles))
	}

	detected := make([]*mimetype.MIME, len(fhs))
	for i, fh := range fhs {
		mt, err := s.Validate(fh)
		if err != nil {
			return nil, err
		}
		detected[i] = mt
	}

	files := make([]File, 0, len(fhs))
	for i, fh := range fhs {
		file, err := s.store(ctx, owner, fh, detected[i])
		if err != nil {
			for _, done := range files {
				s.delete(ctx, done.ID)
			}
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (s *Service) store(ctx context.Context, owner int64, fh *multipart.FileHeader, mt *mimetype.MIME) (File, error) {
	f, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	id := objectID(owner, uuid.NewString(), mt.Extension())
	url, err := s.storage.Save(ctx, id, mt.String(), io.LimitReader(f, s.cfg.MaxBytes))
	if err != nil {
		return File{}, fmt.Errorf("store upload: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"upload_id": id,
		"user_id":   owner,
		"size":      fh.Size,
		"backend":   s.storage.Backend(),
	}).Info("upload stored")

	return File{ID: id, URL: url, OriginalName: fh.Filename, Size: fh.Size, ContentType: mt.String()}, nil
}

// Remove deletes the upload id on behalf of owner. Uploads stored by someone
// else are refused. Storage failures are logged and swallowed.
func (s *Service) Remove(ctx context.Context, owner int64, id string) error {
	uploader, ok := OwnerOf(id)
	if !ok {
		return apperror.NotFound("upload not found")
	}
	if uploader != owner {
		return apperror.Forbidden("you do not own this upload")
	}
	s.delete(ctx, id)
	return nil
}

// Release deletes the upload behind url if this service stored it for owner.
// Empty URLs, foreign URLs and other users' uploads are ignored.
func (s *Service) Release(ctx context.Context, owner int64, url string) {
	if url == "" {
		return
	}
	id, ok := s.storage.ID(url)
	if !ok {
		return
	}
	if uploader, ok := OwnerOf(id); !ok || uploader != owner {
		s.log.WithFields(logrus.Fields{"upload_id": id, "user_id": owner}).Debug("release skipped, not the uploader")
		return
	}
	s.delete(ctx, id)
}

func (s *Service) delete(ctx context.Context, id string) {
	if err := s.storage.Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("upload_id", id).Warn("upload cleanup failed")
	}
}

// objectID prefixes the generated name with the uploader: "<owner>-<name><ext>".
func objectID(owner int64, name, ext string) string {
	return strconv.FormatInt(owner, 10) + "-" + name + ext
}

// OwnerOf reads the uploader back from an object id.
func OwnerOf(id string) (int64, bool) {
	if !validID(id) {
		return 0, false
	}
	prefix, rest, ok := strings.Cut(id, "-")
	if !ok || rest == "" {
		return 0, false
	}
	owner, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || owner < 1 {
		return 0, false
	}
	return owner, true
}

func (s *Service) allowed(contentType string) bool {
	return slices.Contains(s.cfg.AllowedTypes, contentType)
}

func baseType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
