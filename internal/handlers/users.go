package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

type UserHandler struct {
	store store.Store
}

func NewUserHandler(d Deps) *UserHandler {
	return &UserHandler{store: d.Store}
}

// GetUserProfile returns the public profile with activity counts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	profile, err := h.store.GetUserProfile(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// GetUserPosts lists a user's posts. The owner also sees their drafts.
func (h *UserHandler) GetUserPosts(c *gin.Context) {
	id, ok := h.existingUser(c)
	if !ok {
		return
	}
	viewer, _ := middleware.CurrentUser(c)

	page := pageFromQuery(c, store.MaxPostLimit)
	posts, total, err := h.store.ListPosts(c.Request.Context(), store.PostQuery{
		Page:          page,
		AuthorID:      id,
		IncludeDrafts: viewer.ID == id,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("posts", posts, page, total))
}

func (h *UserHandler) GetUserComments(c *gin.Context) {
	id, ok := h.existingUser(c)
	if !ok {
		return
	}
	page := pageFromQuery(c, store.MaxCommentLimit)
	comments, total, err := h.store.ListCommentsByUser(c.Request.Context(), id, page)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("comments", comments, page, total))
}

// GetUserLikes lists the published posts a user has liked
func (h *UserHandler) GetUserLikes(c *gin.Context) {
	id, ok := h.existingUser(c)
	if !ok {
		return
	}
	page := pageFromQuery(c, store.MaxPostLimit)
	posts, total, err := h.store.ListPosts(c.Request.Context(), store.PostQuery{Page: page, LikedBy: id})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("posts", posts, page, total))
}

func (h *UserHandler) existingUser(c *gin.Context) (int64, bool) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return 0, false
	}
	if _, err := h.store.GetUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return 0, false
	}
	return id, true
}
