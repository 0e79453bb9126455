package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/auth"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

const userKey = "user"

// Authenticator resolves the bearer token of a request into a user.
type Authenticator struct {
	tokens *auth.TokenManager
	users  store.UserStore
	log    *logrus.Logger
}

func NewAuthenticator(tokens *auth.TokenManager, users store.UserStore, log *logrus.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// RequireAuth rejects the request with 401 unless it carries a valid token
// for an existing user.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.authenticate(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when the token checks out. Any failure,
// including an expired token or a deleted user, lets the request through
// anonymously; the reason is logged at debug level only.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.authenticate(c)
		if err != nil {
			if !errors.Is(err, auth.ErrTokenMissing) {
				a.log.WithFields(requestFields(c)).WithError(err).Debug("optional auth ignored")
			}
			c.Next()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (models.User, error) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return models.User{}, apperror.Wrap(apperror.KindUnauthorized, "authentication required", err)
	}

	userID, err := a.tokens.Verify(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return models.User{}, apperror.Wrap(apperror.KindUnauthorized, "token expired", err)
	case err != nil:
		return models.User{}, apperror.Wrap(apperror.KindUnauthorized, "invalid token", err)
	}

	user, err := a.users.GetUser(c.Request.Context(), userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.User{}, apperror.Wrap(apperror.KindUnauthorized, "user no longer exists", err)
	case err != nil:
		return models.User{}, err
	}
	return user, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrTokenMissing
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", auth.ErrTokenInvalid
	}
	return strings.TrimSpace(token), nil
}

// CurrentUser returns the user attached by one of the auth guards.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// MustCurrentUser is for handlers mounted behind RequireAuth. A missing user
// means the route table is wrong, so it panics.
func MustCurrentUser(c *gin.Context) models.User {
	user, ok := CurrentUser(c)
	if !ok {
		panic("middleware: no authenticated user on " + c.FullPath())
	}
	return user
}
