package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/core/id"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParamID parses a UUID path parameter. Malformed IDs answer 400.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+name).WithDetail("field", name))
		return id.Nil(), false
	}
	return parsed, true
}

// Principal returns the authenticated principal or aborts with 401.
// Routes behind a required Authenticate never take the abort branch.
func (h *BaseHandler) Principal(c *gin.Context) (appctx.Principal, bool) {
	p, ok := appctx.GetPrincipal(c.Request.Context())
	if !ok {
		h.Error(c, apperror.NewUnauthorized("Authentication required"))
	}
	return p, ok
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}
