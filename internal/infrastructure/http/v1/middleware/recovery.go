package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockgate/internal/core/apperror"
	"stockgate/pkg/logger"
)

// Recovery turns a panic into INTERNAL_ERROR. The stack goes to the log
// only. A panic inside a command has already rolled its transaction back.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// The client went away; nothing to write.
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"route", c.FullPath(),
				"error", rec,
				"stack", string(debug.Stack()))

			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", c.GetString("request_id")))
			c.Abort()
		}()
		c.Next()
	}
}
