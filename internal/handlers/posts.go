package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/slug"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
	"github.com/emilythestrangee/blog-platform/backend/internal/upload"
)

const (
	excerptLength  = 160
	minTitleLength = 3
	maxTags        = 10
	slugAttempts   = 3
)

type PostHandler struct {
	store   store.Store
	uploads *upload.Service
	log     *logrus.Logger
}

func NewPostHandler(d Deps) *PostHandler {
	return &PostHandler{store: d.Store, uploads: d.Uploads, log: d.Log}
}

// GetPosts lists published posts. A search term switches off the tag and
// author filters.
func (h *PostHandler) GetPosts(c *gin.Context) {
	q := store.PostQuery{
		Page:   pageFromQuery(c, store.MaxPostLimit),
		Tags:   normalizeTags(strings.Split(c.Query("tags"), ",")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || author < 1 {
			fail(c, apperror.Validation("invalid author"))
			return
		}
		q.AuthorID = author
	}

	posts, total, err := h.store.ListPosts(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, paged("posts", posts, q.Page, total))
}

// GetPost returns a single post by ID or slug and counts the view. Drafts
// are only visible to their author.
func (h *PostHandler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()

	post, err := h.lookup(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !visible(c, post) {
		fail(c, apperror.NotFound("post not found"))
		return
	}

	if err := h.store.IncrementViews(ctx, post.ID); err != nil {
		h.log.WithError(err).WithField("post_id", post.ID).Warn("view count not updated")
	} else {
		post.Views++
	}
	respond(c, http.StatusOK, post)
}

// lookup resolves a numeric id first and falls back to the slug, so a post
// titled "2024" is still reachable by its slug.
func (h *PostHandler) lookup(ctx context.Context, idOrSlug string) (models.PostDetail, error) {
	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil && id > 0 {
		post, err := h.store.GetPost(ctx, id)
		if !errors.Is(err, store.ErrNotFound) {
			return post, err
		}
	}
	return h.store.GetPostBySlug(ctx, idOrSlug)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	ctx := c.Request.Context()

	var req models.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	title, ok := postTitle(c, req.Title)
	if !ok {
		return
	}
	post := models.Post{
		UserID:    user.ID,
		Title:     title,
		Body:      req.Body,
		Excerpt:   strings.TrimSpace(req.Excerpt),
		ImageURL:  strings.TrimSpace(req.ImageURL),
		Tags:      normalizeTags(req.Tags),
		Published: req.Published,
	}
	if post.Excerpt == "" {
		post.Excerpt = excerptFrom(post.Body)
	}

	err := h.withUniqueSlug(ctx, &post, func() error {
		return h.store.CreatePost(ctx, &post)
	})
	if err != nil {
		fail(c, err)
		return
	}

	detail, err := h.store.GetPost(ctx, post.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{"post_id": post.ID, "slug": post.Slug}).Info("post created")
	respondMessage(c, http.StatusCreated, "post created", detail)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req models.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	current, err := h.store.GetPost(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	post := current.Post
	oldImage := post.ImageURL
	titleChanged := false

	if req.Title != nil {
		title, ok := postTitle(c, *req.Title)
		if !ok {
			return
		}
		titleChanged = title != post.Title
		post.Title = title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*req.Excerpt)
		if post.Excerpt == "" {
			post.Excerpt = excerptFrom(post.Body)
		}
	}
	if req.ImageURL != nil {
		post.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Tags != nil {
		post.Tags = normalizeTags(*req.Tags)
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}

	write := func() error { return h.store.UpdatePost(ctx, &post) }
	if titleChanged {
		err = h.withUniqueSlug(ctx, &post, write)
	} else {
		err = write()
	}
	if err != nil {
		fail(c, err)
		return
	}
	if post.ImageURL != oldImage {
		h.uploads.Release(ctx, post.UserID, oldImage)
	}

	detail, err := h.store.GetPost(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "post updated", detail)
}

// DeletePost deletes a post with its comments and likes (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	post, err := h.store.GetPost(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.store.DeletePost(ctx, id); err != nil {
		fail(c, err)
		return
	}
	h.uploads.Release(ctx, post.UserID, post.ImageURL)
	respondMessage(c, http.StatusOK, "post deleted", nil)
}

// TogglePublish flips the published flag (PROTECTED - requires ownership)
func (h *PostHandler) TogglePublish(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	post, err := h.store.GetPost(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	published := !post.Published
	if err := h.store.SetPublished(ctx, id, published); err != nil {
		fail(c, err)
		return
	}

	message := "post unpublished"
	if published {
		message = "post published"
	}
	respondMessage(c, http.StatusOK, message, gin.H{"id": id, "published": published})
}

// GetPostStats returns view, like and comment counts. Drafts are only
// visible to their author.
func (h *PostHandler) GetPostStats(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	post, err := h.store.GetPost(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !visible(c, post) {
		fail(c, apperror.NotFound("post not found"))
		return
	}
	stats, err := h.store.GetPostStats(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// withUniqueSlug derives the slug from the post title and runs write. When a
// concurrent writer takes the slug between the probe and the write, the slug
// is resolved again, up to slugAttempts times.
func (h *PostHandler) withUniqueSlug(ctx context.Context, post *models.Post, write func() error) error {
	base := slug.Slugify(post.Title)
	exists := func(ctx context.Context, candidate string) (bool, error) {
		return h.store.SlugExists(ctx, candidate, post.ID)
	}

	for attempt := 1; ; attempt++ {
		s, err := slug.Unique(ctx, base, exists)
		if err != nil {
			return err
		}
		post.Slug = s

		err = write()
		if !errors.Is(err, store.ErrSlugTaken) {
			return err
		}
		if attempt == slugAttempts {
			return apperror.Wrap(apperror.KindConflict, "could not allocate a unique slug, try again", err)
		}
		h.log.WithFields(logrus.Fields{"slug": s, "attempt": attempt}).Debug("slug taken concurrently, retrying")
	}
}

// postTitle trims the title and checks the length binding saw before trimming.
func postTitle(c *gin.Context, raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	if utf8.RuneCountInString(title) < minTitleLength {
		fail(c, apperror.Validation(fmt.Sprintf("title must be at least %d characters", minTitleLength)))
		return "", false
	}
	return title, true
}

// visible reports whether the current viewer may see post.
func visible(c *gin.Context, post models.PostDetail) bool {
	if post.Published {
		return true
	}
	viewer, ok := middleware.CurrentUser(c)
	return ok && viewer.ID == post.UserID
}

// excerptFrom cuts the body to excerptLength characters.
func excerptFrom(body string) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return strings.TrimSpace(string(runes))
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping the first
// maxTags. The result is never nil so that it stores as an empty array.
func normalizeTags(raw []string) pq.StringArray {
	tags := pq.StringArray{}
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
