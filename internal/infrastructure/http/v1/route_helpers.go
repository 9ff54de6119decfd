// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/http/v1/middleware"
	"sessionhub/internal/infrastructure/ratelimit"
)

// RateLimits are the request budgets of the API.
type RateLimits struct {
	// General applies to every route outside /auth, keyed by principal or IP.
	General ratelimit.Limit
	// Auth applies to every /auth route, keyed by IP.
	Auth ratelimit.Limit
	// LoginIP and LoginUsername additionally guard POST /auth/login.
	LoginIP       ratelimit.Limit
	LoginUsername ratelimit.Limit
}

// DefaultRateLimits returns the production budgets.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		General:       ratelimit.PerMinute("general", 120),
		Auth:          ratelimit.PerMinute("auth", 120),
		LoginIP:       ratelimit.PerMinute("login_ip", 20),
		LoginUsername: ratelimit.PerMinute("login_user", 10),
	}
}

// guards builds per-route middleware chains.
type guards struct {
	cfg RouterConfig
}

// limit returns a rate limit handler, or nil when rate limiting is disabled.
func (g guards) limit(limit ratelimit.Limit, key middleware.KeyFunc) gin.HandlerFunc {
	if g.cfg.Limiter == nil {
		return nil
	}
	return middleware.RateLimit(g.cfg.Limiter, limit, key, g.cfg.Metrics)
}

// route authenticates per req, then applies the general limit so authenticated
// callers are keyed by account.
func (g guards) route(req auth.Requirement, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		middleware.Authenticate(g.cfg.Authenticator, g.cfg.Tokens, req),
	}
	if l := g.limit(g.cfg.RateLimits.General, middleware.ByPrincipalOrIP); l != nil {
		chain = append(chain, l)
	}
	return append(chain, handler)
}

// public applies the general limit keyed by IP.
func (g guards) public(handler gin.HandlerFunc) []gin.HandlerFunc {
	return g.route(auth.Requirement{Mode: auth.ModeNone}, handler)
}

// use adds non-nil handlers to the group.
func use(rg *gin.RouterGroup, hs ...gin.HandlerFunc) {
	for _, h := range hs {
		if h != nil {
			rg.Use(h)
		}
	}
}
