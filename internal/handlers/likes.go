package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

type LikeHandler struct {
	store store.Store
	log   *logrus.Logger
	now   func() time.Time
}

func NewLikeHandler(d Deps) *LikeHandler {
	return &LikeHandler{store: d.Store, log: d.Log, now: time.Now}
}

// ToggleLike likes the post, or unlikes it when the user already liked it
// (PROTECTED). The delete runs first; only when it removed nothing is the
// like inserted, and a conflicting concurrent insert still counts as liked.
func (h *LikeHandler) ToggleLike(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	ctx := c.Request.Context()

	post, ok := publishedPost(c, h.store)
	if !ok {
		return
	}

	removed, err := h.store.RemoveLike(ctx, post.ID, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	liked := !removed
	if liked {
		added, err := h.store.AddLike(ctx, post.ID, user.ID)
		if err != nil {
			fail(c, err)
			return
		}
		if !added {
			h.log.WithFields(logrus.Fields{"post_id": post.ID, "user_id": user.ID}).Debug("like already inserted by a concurrent toggle")
		}
	}

	count, err := h.store.CountLikes(ctx, post.ID)
	if err != nil {
		fail(c, err)
		return
	}

	message := "post unliked"
	if liked {
		message = "post liked"
	}
	respondMessage(c, http.StatusOK, message, models.LikeState{PostID: post.ID, Liked: liked, LikeCount: count})
}

func (h *LikeHandler) GetLikeCount(c *gin.Context) {
	id, ok := h.publishedPostID(c)
	if !ok {
		return
	}
	count, err := h.store.CountLikes(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"post_id": id, "like_count": count})
}

// CheckLike reports whether the viewer likes the post. Anonymous viewers
// always get false.
func (h *LikeHandler) CheckLike(c *gin.Context) {
	id, ok := h.publishedPostID(c)
	if !ok {
		return
	}
	state := models.LikeState{PostID: id}

	var err error
	if viewer, ok := middleware.CurrentUser(c); ok {
		if state.Liked, err = h.store.HasLiked(c.Request.Context(), id, viewer.ID); err != nil {
			fail(c, err)
			return
		}
	}
	if state.LikeCount, err = h.store.CountLikes(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, state)
}

func (h *LikeHandler) GetLikers(c *gin.Context) {
	id, ok := h.publishedPostID(c)
	if !ok {
		return
	}
	page := pageFromQuery(c, store.MaxLikerLimit)
	likers, total, err := h.store.ListLikers(c.Request.Context(), id, page)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("likers", likers, page, total))
}

// GetMostLiked lists published posts with at least one like, most liked
// first. days > 0 restricts it to posts created in that window.
func (h *LikeHandler) GetMostLiked(c *gin.Context) {
	q := store.PostQuery{
		Page:  pageFromQuery(c, store.MaxPostLimit),
		Order: store.OrderMostLiked,
	}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, apperror.Validation("days must be a whole number"))
			return
		}
		if days > 0 {
			q.Since = h.now().AddDate(0, 0, -days)
		}
	}

	posts, total, err := h.store.ListPosts(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("posts", posts, q.Page, total))
}

// publishedPostID is publishedPost for handlers that only need the id.
func (h *LikeHandler) publishedPostID(c *gin.Context) (int64, bool) {
	post, ok := publishedPost(c, h.store)
	return post.ID, ok
}
