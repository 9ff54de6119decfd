// Package handlers provides HTTP request handlers.
package handlers

import (
	"github.com/gin-gonic/gin"

	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/http/v1/dto"
	"sessionhub/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
	cookies CookieConfig
	tokens  middleware.TokenSource
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, cookies CookieConfig, tokens middleware.TokenSource) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
		cookies:     cookies,
		tokens:      tokens,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.CredentialsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Register(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.cookies.SetSessionCookies(c, session.Tokens)
	h.Created(c, dto.FromSession(session))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.CredentialsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.cookies.SetSessionCookies(c, session.Tokens)
	h.OK(c, dto.FromSession(session))
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)

	session, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.cookies.SetSessionCookies(c, session.Tokens)
	h.OK(c, dto.StatusOK)
}

// Logout handles POST /auth/logout. It always succeeds and clears the cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 {
		// The body is optional; a malformed one is treated as absent.
		_ = c.ShouldBindJSON(&req)
	}

	refreshToken := req.RefreshToken
	if v, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && v != "" {
		refreshToken = v
	}

	h.service.Logout(c.Request.Context(), h.tokens.AccessToken(c), refreshToken)

	h.cookies.ClearSessionCookies(c)
	h.OK(c, dto.StatusOK)
}
