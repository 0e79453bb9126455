package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/auth"
	"github.com/emilythestrangee/blog-platform/backend/internal/config"
	"github.com/emilythestrangee/blog-platform/backend/internal/handlers"
	"github.com/emilythestrangee/blog-platform/backend/internal/middleware"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
	"github.com/emilythestrangee/blog-platform/backend/internal/upload"
)

// HealthChecker is satisfied by database.Service.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	cfg     config.Config
	health  HealthChecker
	handler *handlers.Handler
	authn   *middleware.Authenticator
	owners  *middleware.OwnershipGuard
	storage upload.Storage
	log     *logrus.Logger
}

// New wires handlers, guards and upload storage around the given store.
func New(cfg config.Config, health HealthChecker, st store.Store, storage upload.Storage, log *logrus.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	handler := handlers.NewHandler(handlers.Deps{
		Store:   st,
		Tokens:  tokens,
		Hasher:  auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Uploads: upload.NewService(storage, cfg.Upload, log),
		Log:     log,
	})

	return &Server{
		cfg:     cfg,
		health:  health,
		handler: handler,
		authn:   middleware.NewAuthenticator(tokens, st, log),
		owners:  middleware.NewOwnershipGuard(st),
		storage: storage,
		log:     log,
	}
}

// HTTPServer wraps the router in an http.Server listening on the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAnyOrigin(s.cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))
	r.Use(
		middleware.RequestLogger(s.log),
		middleware.Recovery(s.log),
		middleware.ErrorHandler(s.log, s.cfg.IsProduction()),
	)

	// Health check endpoint
	r.GET("/health", s.healthHandler)

	// Local uploads are served straight from disk
	if local, ok := s.storage.(*upload.Local); ok {
		r.Static("/uploads", local.Dir())
	}

	h := s.handler
	requireAuth := s.authn.RequireAuth()
	optionalAuth := s.authn.OptionalAuth()
	ownsPost := s.owners.RequireOwner(middleware.ResourcePost)
	ownsComment := s.owners.RequireOwner(middleware.ResourceComment)

	api := r.Group("/api")
	{
		// Auth routes
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/auth/me", requireAuth, h.Auth.GetMe)
		api.PUT("/auth/me", requireAuth, h.Auth.UpdateMe)
		api.DELETE("/auth/me", requireAuth, h.Auth.DeleteMe)
		api.PUT("/auth/password", requireAuth, h.Auth.ChangePassword)

		// User routes (public reads)
		api.GET("/users/:id", h.User.GetUserProfile)
		api.GET("/users/:id/posts", optionalAuth, h.User.GetUserPosts)
		api.GET("/users/:id/comments", h.User.GetUserComments)
		api.GET("/users/:id/likes", h.User.GetUserLikes)

		// Post routes
		api.GET("/posts", optionalAuth, h.Post.GetPosts)
		api.GET("/posts/:id", optionalAuth, h.Post.GetPost)
		api.GET("/posts/:id/stats", optionalAuth, h.Post.GetPostStats)
		api.POST("/posts", requireAuth, h.Post.CreatePost)
		api.PUT("/posts/:id", requireAuth, ownsPost, h.Post.UpdatePost)
		api.DELETE("/posts/:id", requireAuth, ownsPost, h.Post.DeletePost)
		api.PATCH("/posts/:id/publish", requireAuth, ownsPost, h.Post.TogglePublish)

		// Comment routes
		api.GET("/posts/:id/comments", h.Comment.GetComments)
		api.POST("/posts/:id/comments", requireAuth, h.Comment.CreateComment)
		api.GET("/comments/:id", h.Comment.GetComment)
		api.PUT("/comments/:id", requireAuth, ownsComment, h.Comment.UpdateComment)
		api.DELETE("/comments/:id", requireAuth, ownsComment, h.Comment.DeleteComment)

		// Like routes
		api.POST("/posts/:id/like", requireAuth, h.Like.ToggleLike)
		api.GET("/posts/:id/likes", h.Like.GetLikers)
		api.GET("/posts/:id/likes/count", h.Like.GetLikeCount)
		api.GET("/posts/:id/likes/check", optionalAuth, h.Like.CheckLike)
		api.GET("/likes/most-liked", h.Like.GetMostLiked)

		// Upload routes
		api.GET("/uploads/config", h.Upload.GetConfig)
		api.POST("/uploads/image", requireAuth, h.Upload.UploadImage)
		api.POST("/uploads/images", requireAuth, h.Upload.UploadImages)
		api.DELETE("/uploads/:id", requireAuth, h.Upload.DeleteUpload)
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.health.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"success": status == http.StatusOK, "data": stats})
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
