package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/blog-platform/backend/internal/apperror"
)

// ErrorHandler turns the last error attached with c.Error into an envelope
// response. Handlers and guards never write error bodies themselves.
func ErrorHandler(log *logrus.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		message := appErr.Message
		if appErr.Kind == apperror.KindInternal {
			log.WithFields(requestFields(c)).WithError(appErr.Err).Error("request failed")
			if !production && appErr.Err != nil {
				message = appErr.Err.Error()
			}
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.Kind.Status(), gin.H{
			"success": false,
			"message": message,
		})
	}
}

// Recovery answers a panic with the internal error envelope.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(requestFields(c)).WithField("panic", recovered).Error("handler panicked")
		c.AbortWithStatusJSON(apperror.KindInternal.Status(), gin.H{
			"success": false,
			"message": "internal server error",
		})
	})
}
