package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/infrastructure/ratelimit"
	"sessionhub/pkg/logger"
)

// maxPeekBody bounds how much of a login body is read to find the username.
const maxPeekBody = 64 << 10

// KeyFunc derives the rate limit key of a request. An empty key skips the limit.
type KeyFunc func(c *gin.Context) string

// ByIP keys requests by client IP.
func ByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByPrincipalOrIP keys authenticated requests by account and the rest by client IP.
func ByPrincipalOrIP(c *gin.Context) string {
	if p, ok := appctx.GetPrincipal(c.Request.Context()); ok {
		return "account:" + p.AccountID.String()
	}
	return ByIP(c)
}

// ByLoginUsername keys login attempts by the lower-cased username of the JSON body.
// The body is restored for the handler.
func ByLoginUsername(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}

	body := c.Request.Body
	raw, err := io.ReadAll(io.LimitReader(body, maxPeekBody))
	c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(raw), body), body}
	if err != nil {
		return ""
	}

	var creds struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(raw, &creds) != nil {
		return ""
	}

	username := strings.ToLower(strings.TrimSpace(creds.Username))
	if username == "" {
		return ""
	}
	return "user:" + username
}

// readCloser replays the peeked prefix, then the rest of the original body, which it closes.
type readCloser struct {
	io.Reader
	io.Closer
}

// RateLimit consumes one event of limit per request.
// Limiter failures are logged and let the request through.
func RateLimit(limiter ratelimit.Limiter, limit ratelimit.Limit, key KeyFunc, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), k, limit)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, allowing request",
				"limit", limit.Name,
				"error", err)
			c.Next()
			return
		}

		if !res.Allowed {
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			metrics.RateLimited(limit.Name)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abort(c, apperror.NewTooManyRequests(retryAfter))
			return
		}

		c.Next()
	}
}
