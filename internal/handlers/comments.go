package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

type CommentHandler struct {
	store store.Store
}

func NewCommentHandler(d Deps) *CommentHandler {
	return &CommentHandler{store: d.Store}
}

// GetComments lists the comments of a published post, newest first
func (h *CommentHandler) GetComments(c *gin.Context) {
	post, ok := publishedPost(c, h.store)
	if !ok {
		return
	}
	page := pageFromQuery(c, store.MaxCommentLimit)
	comments, total, err := h.store.ListCommentsByPost(c.Request.Context(), post.ID, page)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("comments", comments, page, total))
}

// CreateComment adds a comment to a published post (PROTECTED)
func (h *CommentHandler) CreateComment(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var req models.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	text, ok := commentText(c, req)
	if !ok {
		return
	}
	post, ok := publishedPost(c, h.store)
	if !ok {
		return
	}

	comment := models.Comment{PostID: post.ID, UserID: user.ID, Text: text}
	if err := h.store.CreateComment(c.Request.Context(), &comment); err != nil {
		fail(c, err)
		return
	}
	detail, err := h.store.GetComment(c.Request.Context(), comment.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "comment added", detail)
}

// GetComment returns one comment. Comments on drafts read as missing.
func (h *CommentHandler) GetComment(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	comment, err := h.store.GetComment(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !comment.PostPublished {
		fail(c, apperror.NotFound("comment not found"))
		return
	}
	respond(c, http.StatusOK, comment)
}

// UpdateComment updates a comment (PROTECTED - requires ownership)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req models.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	text, ok := commentText(c, req)
	if !ok {
		return
	}

	if err := h.store.UpdateComment(c.Request.Context(), id, text); err != nil {
		fail(c, err)
		return
	}
	comment, err := h.store.GetComment(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "comment updated", comment)
}

// DeleteComment deletes a comment (PROTECTED - requires ownership)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.store.DeleteComment(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "comment deleted", nil)
}

func commentText(c *gin.Context, req models.CommentRequest) (string, bool) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		fail(c, apperror.Validation("text is required"))
		return "", false
	}
	return text, true
}

// publishedPost loads the post named by the :id parameter. Drafts read as
// missing.
func publishedPost(c *gin.Context, s store.PostStore) (models.PostDetail, bool) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return models.PostDetail{}, false
	}
	post, err := s.GetPost(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return models.PostDetail{}, false
	}
	if !post.Published {
		fail(c, apperror.NotFound("post not found"))
		return models.PostDetail{}, false
	}
	return post, true
}
