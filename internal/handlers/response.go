package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

// envelope is the body of every API response. Errors are written by
// middleware.ErrorHandler in the same shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// fail hands err to the error translator.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, err)
		return false
	}
	return true
}

func pageFromQuery(c *gin.Context, max int) store.Page {
	return store.ParsePage(c.Query("page"), c.Query("limit"), max)
}

func paged(key string, items any, p store.Page, total int64) gin.H {
	return gin.H{key: items, "pagination": store.NewPagination(p, total)}
}
