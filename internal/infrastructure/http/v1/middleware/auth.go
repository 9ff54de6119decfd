package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/domain/auth"
)

// Session cookie names.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Authenticator resolves a presented access token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, req auth.Requirement) (appctx.Principal, bool, error)
}

// TokenSource extracts the access token from a request.
// The cookie always wins; the Authorization header is read only when AllowBearer is set.
type TokenSource struct {
	AllowBearer bool
}

// AccessToken returns the presented access token or "".
func (s TokenSource) AccessToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v
	}
	if !s.AllowBearer {
		return ""
	}
	return bearerToken(c.GetHeader("Authorization"))
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate enforces req on the route and stores the principal in the request context.
func Authenticate(authn Authenticator, source TokenSource, req auth.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if req.Mode == auth.ModeNone {
			c.Next()
			return
		}

		principal, ok, err := authn.Authenticate(c.Request.Context(), source.AccessToken(c), req)
		if err != nil {
			abort(c, err)
			return
		}

		if ok {
			c.Request = c.Request.WithContext(appctx.WithPrincipal(c.Request.Context(), principal))
			c.Set("account_id", principal.AccountID.String())
		}

		c.Next()
	}
}
