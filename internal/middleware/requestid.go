package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderXRequestID carries the request ID between client and server.
	HeaderXRequestID = "X-Request-ID"
	// ContextRequestID is the gin context key the request logger reads.
	ContextRequestID = "request_id"
)

// RequestID tags every request with an ID so log lines for a single request
// can be correlated. An incoming X-Request-ID is echoed back; otherwise a
// fresh UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
