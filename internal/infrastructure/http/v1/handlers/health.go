package handlers

import (
	"github.com/gin-gonic/gin"

	"sessionhub/internal/domain/health"
	"sessionhub/internal/infrastructure/http/v1/dto"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	*BaseHandler
	service *health.Service
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(base *BaseHandler, service *health.Service) *HealthHandler {
	return &HealthHandler{BaseHandler: base, service: service}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	h.OK(c, h.service.Info())
}

// PingDB handles GET /db/ping
func (h *HealthHandler) PingDB(c *gin.Context) {
	if err := h.service.PingDB(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.StatusOK)
}

// PingRedis handles GET /redis/ping
func (h *HealthHandler) PingRedis(c *gin.Context) {
	if err := h.service.PingCache(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.StatusOK)
}

// PingStorage handles GET /storage/ping
func (h *HealthHandler) PingStorage(c *gin.Context) {
	status, err := h.service.PingStorage(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"status": "ok",
		"bucket": status.Bucket,
		"exists": status.Exists,
	})
}
