package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/lewebsimple/autologin/internal/requestid"
)

// RequestID injects a request ID into the context and response header.
// A well-formed incoming X-Request-ID is preserved; anything else is
// replaced with a new UUID v4.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if !requestid.Valid(id) {
			id = requestid.New()
		}

		ctx := requestid.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
