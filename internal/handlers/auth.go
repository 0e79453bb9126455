package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/auth"
	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
	"github.com/emilythestrangee/blog-platform/backend/internal/upload"
)

var errBadCredentials = apperror.Unauthorized("invalid email or password")

type AuthHandler struct {
	store   store.Store
	tokens  *auth.TokenManager
	hasher  auth.PasswordHasher
	uploads *upload.Service
	log     *logrus.Logger
}

func NewAuthHandler(d Deps) *AuthHandler {
	return &AuthHandler{store: d.Store, tokens: d.Tokens, hasher: d.Hasher, uploads: d.Uploads, log: d.Log}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        auth.NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		fail(c, err)
		return
	}

	resp, err := h.authResponse(user)
	if err != nil {
		fail(c, err)
		return
	}
	h.log.WithField("user_id", user.ID).Info("user registered")
	respondMessage(c, http.StatusCreated, "registration successful", resp)
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), auth.NormalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, errBadCredentials)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		fail(c, errBadCredentials)
		return
	}

	resp, err := h.authResponse(user)
	if err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "login successful", resp)
}

// GetMe returns the current authenticated user (PROTECTED)
func (h *AuthHandler) GetMe(c *gin.Context) {
	respond(c, http.StatusOK, middleware.MustCurrentUser(c))
}

// UpdateMe edits the profile fields present in the request (PROTECTED)
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	oldAvatar := user.AvatarURL
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			fail(c, apperror.Validation("name must be at least 2 characters"))
			return
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}

	if err := h.store.UpdateUser(c.Request.Context(), &user); err != nil {
		fail(c, err)
		return
	}
	if user.AvatarURL != oldAvatar {
		h.uploads.Release(c.Request.Context(), user.ID, oldAvatar)
	}
	respondMessage(c, http.StatusOK, "profile updated", user)
}

// ChangePassword replaces the password after checking the current one (PROTECTED)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		fail(c, apperror.Wrap(apperror.KindUnauthorized, "current password is incorrect", err))
		return
	}

	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	user.PasswordHash = hash
	if err := h.store.UpdateUser(c.Request.Context(), &user); err != nil {
		fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "password changed", nil)
}

// DeleteMe removes the account and everything it owns (PROTECTED)
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	ctx := c.Request.Context()

	var req models.DeleteAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		fail(c, apperror.Wrap(apperror.KindUnauthorized, "password is incorrect", err))
		return
	}

	images, err := h.postImages(c, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.store.DeleteUser(ctx, user.ID); err != nil {
		fail(c, err)
		return
	}

	h.uploads.Release(ctx, user.ID, user.AvatarURL)
	for _, url := range images {
		h.uploads.Release(ctx, user.ID, url)
	}
	h.log.WithField("user_id", user.ID).Info("account deleted")
	respondMessage(c, http.StatusOK, "account deleted", nil)
}

// postImages collects the image URLs of every post of userID, drafts included.
func (h *AuthHandler) postImages(c *gin.Context, userID int64) ([]string, error) {
	var urls []string
	for n := 1; ; n++ {
		page := store.NewPage(n, store.MaxPostLimit, store.MaxPostLimit)
		posts, total, err := h.store.ListPosts(c.Request.Context(), store.PostQuery{
			Page:          page,
			AuthorID:      userID,
			IncludeDrafts: true,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			if p.ImageURL != "" {
				urls = append(urls, p.ImageURL)
			}
		}
		if int64(page.Offset()+len(posts)) >= total || len(posts) == 0 {
			return urls, nil
		}
	}
}

func (h *AuthHandler) authResponse(user models.User) (models.AuthResponse, error) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{Token: token, User: user}, nil
}
