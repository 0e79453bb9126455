package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/auth"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store/storetest"
)

const testSecret = "test-secret"

type fixture struct {
	store  *storetest.Memory
	tokens *auth.TokenManager
	authn  *Authenticator
	guard  *OwnershipGuard
	log    *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := storetest.New()
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	return &fixture{
		store:  s,
		tokens: tokens,
		authn:  NewAuthenticator(tokens, s, log),
		guard:  NewOwnershipGuard(s),
		log:    log,
	}
}

func (f *fixture) router() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(f.log), ErrorHandler(f.log, false))
	return r
}

func (f *fixture) user(t *testing.T, email string) (models.User, string) {
	t.Helper()
	u := models.User{Name: "Test", Email: email, PasswordHash: "x"}
	require.NoError(t, f.store.CreateUser(context.Background(), &u))
	token, err := f.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func whoami(c *gin.Context) {
	user, ok := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"authenticated": ok, "id": user.ID}})
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t)
	user, token := f.user(t, "a@example.com")
	r := f.router()
	r.GET("/me", f.authn.RequireAuth(), whoami)

	expired, err := auth.NewTokenManager(testSecret, -time.Minute).Issue(user.ID)
	require.NoError(t, err)
	forged, err := auth.NewTokenManager("other-secret", time.Hour).Issue(user.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"missing header", "", "authentication required"},
		{"expired", expired, "token expired"},
		{"wrong signature", forged, "invalid token"},
		{"garbage", "not-a-jwt", "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, "/me", tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.Empty(t, env.Data)
		})
	}

	t.Run("valid", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/me", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":true,"id":1}`, string(env.Data))
	})

	t.Run("deleted user", func(t *testing.T) {
		gone, goneToken := f.user(t, "gone@example.com")
		require.NoError(t, f.store.DeleteUser(context.Background(), gone.ID))
		w, env := do(t, r, http.MethodGet, "/me", goneToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "user no longer exists", env.Message)
	})
}

func TestOptionalAuth(t *testing.T) {
	f := newFixture(t)
	user, token := f.user(t, "a@example.com")
	r := f.router()
	r.GET("/maybe", f.authn.OptionalAuth(), whoami)

	expired, err := auth.NewTokenManager(testSecret, -time.Minute).Issue(user.ID)
	require.NoError(t, err)

	for _, tok := range []string{"", expired, "garbage"} {
		w, env := do(t, r, http.MethodGet, "/maybe", tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":false,"id":0}`, string(env.Data))
	}

	_, env := do(t, r, http.MethodGet, "/maybe", token)
	assert.JSONEq(t, `{"authenticated":true,"id":1}`, string(env.Data))
}

func TestBearerToken(t *testing.T) {
	tok, err := bearerToken("bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = bearerToken("")
	assert.ErrorIs(t, err, auth.ErrTokenMissing)
	_, err = bearerToken("Basic abc")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	_, err = bearerToken("Bearer ")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestRequireOwner(t *testing.T) {
	f := newFixture(t)
	owner, ownerToken := f.user(t, "owner@example.com")
	_, otherToken := f.user(t, "other@example.com")

	post := models.Post{UserID: owner.ID, Title: "Mine", Body: "b", Slug: "mine", Published: true}
	require.NoError(t, f.store.CreatePost(context.Background(), &post))

	r := f.router()
	r.PUT("/posts/:id", f.authn.RequireAuth(), f.guard.RequireOwner(ResourcePost), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	path := fmt.Sprintf("/posts/%d", post.ID)

	w, env := do(t, r, http.MethodPut, path, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "you do not own this post", env.Message)

	w, _ = do(t, r, http.MethodPut, path, ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPut, "/posts/99", ownerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, r, http.MethodPut, "/posts/abc", ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", env.Message)
}

func TestRequireOwnerWithoutAuthPanics(t *testing.T) {
	f := newFixture(t)
	r := f.router()
	r.DELETE("/comments/:id", f.guard.RequireOwner(ResourceComment), func(c *gin.Context) {})

	w, env := do(t, r, http.MethodDelete, "/comments/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
}

func TestRequireOwnerUnknownKind(t *testing.T) {
	f := newFixture(t)
	assert.Panics(t, func() { f.guard.RequireOwner("tag") })
}

func TestErrorHandler(t *testing.T) {
	f := newFixture(t)

	build := func(production bool) *gin.Engine {
		r := gin.New()
		r.Use(ErrorHandler(f.log, production))
		r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })
		r.GET("/conflict", func(c *gin.Context) { _ = c.Error(apperror.Conflict("taken")) })
		return r
	}

	w, env := do(t, build(true), http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Message)

	_, env = do(t, build(false), http.MethodGet, "/boom", "")
	assert.Equal(t, "db exploded", env.Message)

	w, env = do(t, build(true), http.MethodGet, "/conflict", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "taken", env.Message)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/teapot", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/teapot", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "warning", line["level"])
}
