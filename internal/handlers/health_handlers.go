package handlers

import (
	"net/http"

	"site_stores_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and the stock clamp counter.
type HealthHandler struct {
	inventoryService services.InventoryService
}

func NewHealthHandler(is services.InventoryService) *HealthHandler {
	return &HealthHandler{inventoryService: is}
}

// Health handles GET /api/v1/health. A non-zero clamp_events means some stock
// level would have gone negative and was floored at zero.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"clamp_events": h.inventoryService.ClampEvents(),
	})
}
