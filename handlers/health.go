package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"presenca_backend/storage"
)

type HealthHandler struct {
	kv storage.KV
}

func NewHealthHandler(kv storage.KV) *HealthHandler {
	return &HealthHandler{kv: kv}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	// Probe the durable store with a read; the key need not exist.
	if _, _, err := h.kv.Get(c.Request.Context(), "healthz"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "Store connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
