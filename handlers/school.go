package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"presenca_backend/models"
)

// Course catalog shown on the public school page.
var courses = []string{
	"Administração",
	"Informática",
	"Mecânica",
	"Edificações",
}

type SchoolHandler struct {
	name  string
	fence models.FenceConfig
}

func NewSchoolHandler(name string, fence models.FenceConfig) *SchoolHandler {
	return &SchoolHandler{name: name, fence: fence}
}

// Info returns the public school card: name, courses and the geofence
// radius students must be within to check in.
func (h *SchoolHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":                   h.name,
		"courses":                courses,
		"geofence_radius_meters": h.fence.RadiusMeters,
	})
}
