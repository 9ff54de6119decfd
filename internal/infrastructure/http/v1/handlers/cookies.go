package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/http/v1/middleware"
)

// Cookie paths. The refresh token is only ever sent to the refresh endpoint.
const (
	AccessCookiePath  = "/"
	RefreshCookiePath = "/auth/refresh"
)

// CookieConfig controls session cookie attributes.
type CookieConfig struct {
	// Secure is set in production.
	Secure bool
	Domain string
}

// SetSessionCookies writes both tokens as HttpOnly, SameSite=Lax cookies
// living as long as the tokens themselves.
func (cfg CookieConfig) SetSessionCookies(c *gin.Context, pair auth.TokenPair) {
	cfg.set(c, middleware.AccessTokenCookie, pair.Access.Value, AccessCookiePath, int(pair.Access.TTL.Seconds()))
	cfg.set(c, middleware.RefreshTokenCookie, pair.Refresh.Value, RefreshCookiePath, int(pair.Refresh.TTL.Seconds()))
}

// ClearSessionCookies expires both cookies.
func (cfg CookieConfig) ClearSessionCookies(c *gin.Context) {
	cfg.set(c, middleware.AccessTokenCookie, "", AccessCookiePath, -1)
	cfg.set(c, middleware.RefreshTokenCookie, "", RefreshCookiePath, -1)
}

func (cfg CookieConfig) set(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, cfg.Domain, cfg.Secure, true)
}
