package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/upload"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file bytes themselves.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploads *upload.Service
}

func NewUploadHandler(d Deps) *UploadHandler {
	return &UploadHandler{uploads: d.Uploads}
}

// UploadImage stores the multipart field "image" (PROTECTED)
func (h *UploadHandler) UploadImage(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	h.limitBody(c, 1)

	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, formError(err, "image file is required"))
		return
	}
	file, err := h.uploads.Save(c.Request.Context(), user.ID, fh)
	if err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "image uploaded", file)
}

// UploadImages stores every file of the multipart field "images" (PROTECTED)
func (h *UploadHandler) UploadImages(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	h.limitBody(c, h.uploads.Limits().MaxFiles)

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, formError(err, "images are required"))
		return
	}
	files, err := h.uploads.SaveMany(c.Request.Context(), user.ID, form.File["images"])
	if err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "images uploaded", gin.H{"files": files})
}

// DeleteUpload removes one of the caller's uploads by id. Storage errors are
// only logged (PROTECTED).
func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	if err := h.uploads.Remove(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "upload deleted", nil)
}

func (h *UploadHandler) GetConfig(c *gin.Context) {
	respond(c, http.StatusOK, h.uploads.Limits())
}

func (h *UploadHandler) limitBody(c *gin.Context, files int) {
	limit := h.uploads.Limits().MaxBytes*int64(files) + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

func formError(err error, missing string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.Validation("request body is too large")
	}
	return apperror.Wrap(apperror.KindValidation, missing, err)
}
