package handlers

import (
	"net/http"

	"github.com/Ayash-Bera/searchable/internal/health"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth probes every dependency. ?cached=true serves the last periodic
// snapshot when one exists.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	if c.Query("cached") == "true" {
		if cached, err := h.checker.CheckCached(c.Request.Context()); err == nil {
			h.write(c, *cached)
			return
		}
	}
	h.write(c, h.checker.CheckAll(c.Request.Context()))
}

func (h *HealthHandler) write(c *gin.Context, result health.OverallHealth) {
	code := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	utils.SuccessResponse(c, code, "Health check completed", result)
}
