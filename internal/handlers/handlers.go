package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/auth"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
	"github.com/emilythestrangee/blog-platform/backend/internal/upload"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Store   store.Store
	Tokens  *auth.TokenManager
	Hasher  auth.PasswordHasher
	Uploads *upload.Service
	Log     *logrus.Logger
}

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Post    *PostHandler
	Comment *CommentHandler
	Like    *LikeHandler
	Upload  *UploadHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(d),
		User:    NewUserHandler(d),
		Post:    NewPostHandler(d),
		Comment: NewCommentHandler(d),
		Like:    NewLikeHandler(d),
		Upload:  NewUploadHandler(d),
	}
}
