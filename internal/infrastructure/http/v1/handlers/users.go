package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/domain/users"
	"sessionhub/internal/infrastructure/http/v1/dto"
)

// UsersHandler handles account profile and administration endpoints.
type UsersHandler struct {
	*BaseHandler
	users *users.Service
	auth  *auth.Service
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(base *BaseHandler, usersService *users.Service, authService *auth.Service) *UsersHandler {
	return &UsersHandler{
		BaseHandler: base,
		users:       usersService,
		auth:        authService,
	}
}

// Me handles GET /users/me
func (h *UsersHandler) Me(c *gin.Context) {
	principal, ok := h.Principal(c)
	if !ok {
		return
	}

	profile, err := h.users.GetSelf(c.Request.Context(), principal)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// Get handles GET /users/:id
func (h *UsersHandler) Get(c *gin.Context) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var viewer *appctx.Principal
	if p, ok := appctx.GetPrincipal(c.Request.Context()); ok {
		viewer = &p
	}

	account, err := h.users.GetPublic(c.Request.Context(), accountID, viewer)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPublicAccount(account))
}

// Ban handles POST /users/:id/ban
func (h *UsersHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

// Unban handles DELETE /users/:id/ban
func (h *UsersHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *UsersHandler) setBanned(c *gin.Context, banned bool) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.auth.SetBanned(c.Request.Context(), accountID, banned); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StatusOK)
}

// AssignRole handles POST /users/:id/roles
func (h *UsersHandler) AssignRole(c *gin.Context) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.auth.AssignRole(c.Request.Context(), accountID, req.Role); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StatusOK)
}
