package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presenca_backend/middleware"
	"presenca_backend/models"
	"presenca_backend/service"
)

type AdminHandler struct {
	svc *service.Service
	log *zap.Logger
}

func NewAdminHandler(svc *service.Service, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

// Roster returns every attendance record, most recent first.
func (h *AdminHandler) Roster(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	capability, err := h.svc.Administer(id)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can view the roster"})
		return
	}

	records, err := h.svc.Roster(c.Request.Context(), capability)
	if err != nil {
		h.log.Error("roster query failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load attendance records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

// Purge clears every attendance record. Destructive, so the request body
// must carry an explicit confirmation.
func (h *AdminHandler) Purge(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	capability, err := h.svc.Administer(id)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can purge attendance"})
		return
	}

	var req models.PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Purge requires {\"confirm\": true}"})
		return
	}

	if err := h.svc.PurgeAll(c.Request.Context(), capability); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can purge attendance"})
			return
		}
		h.log.Error("purge failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to purge attendance records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All attendance records deleted"})
}
