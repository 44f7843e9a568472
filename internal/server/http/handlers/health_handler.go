package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/archstore/internal/server/http/dto"
)

// HealthHandler reports readiness.
type HealthHandler struct {
	facade HealthFacade
	now    func() time.Time
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(facade HealthFacade) *HealthHandler {
	return &HealthHandler{facade: facade, now: time.Now}
}

// Check handles GET /api/health.
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.facade.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Timestamp: h.now().UTC()})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Timestamp: h.now().UTC()})
}
