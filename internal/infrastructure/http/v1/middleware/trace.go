package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "sessionhub/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	maxRequestIDLength = 128
)

// Trace middleware attaches request correlation IDs.
// An incoming X-Request-ID is reused when it is sane, otherwise a new one is generated.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if len(requestID) > maxRequestIDLength {
			requestID = ""
		}

		trace := appctx.NewTraceContext(requestID, c.GetHeader(HeaderTraceID))

		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), trace))
		c.Set("request_id", trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
