package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/previewd/previewd/internal/shared/id"
)

// RequestIDHeader carries the request id on both request and response.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key the id is stored under.
const RequestIDKey = "request_id"

// RequestID tags every request with an id, minting one when the client
// did not send its own. The id is echoed in the response header so logs
// on both sides correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(RequestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}
