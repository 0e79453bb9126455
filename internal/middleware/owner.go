package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

const (
	ResourcePost    = "post"
	ResourceComment = "comment"
)

type ownerLookup struct {
	owner func(ctx context.Context, id int64) (int64, error)
	param string
}

// OwnershipGuard allows a request through only when the authenticated user
// owns the resource named by the path parameter.
type OwnershipGuard struct {
	kinds map[string]ownerLookup
}

func NewOwnershipGuard(s store.Store) *OwnershipGuard {
	return &OwnershipGuard{kinds: map[string]ownerLookup{
		ResourcePost:    {owner: s.PostOwner, param: "id"},
		ResourceComment: {owner: s.CommentOwner, param: "id"},
	}}
}

// RequireOwner must be mounted after RequireAuth. It panics on an unknown
// kind when the route table is built.
func (g *OwnershipGuard) RequireOwner(kind string) gin.HandlerFunc {
	lookup, ok := g.kinds[kind]
	if !ok {
		panic("middleware: unknown resource kind " + strconv.Quote(kind))
	}

	return func(c *gin.Context) {
		user := MustCurrentUser(c)

		id, err := ParamID(c, lookup.param)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ownerID, err := lookup.owner(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if ownerID != user.ID {
			_ = c.Error(apperror.Forbidden("you do not own this " + kind))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.Validation("invalid " + name)
	}
	return id, nil
}
