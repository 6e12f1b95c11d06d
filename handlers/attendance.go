package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presenca_backend/location"
	"presenca_backend/middleware"
	"presenca_backend/models"
	"presenca_backend/service"
)

type AttendanceHandler struct {
	svc     *service.Service
	tracker *location.Tracker
	log     *zap.Logger
}

func NewAttendanceHandler(svc *service.Service, tracker *location.Tracker, log *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, tracker: tracker, log: log}
}

// Ping stores the device's current position so check-ins and the auto
// scheduler have a fresh sample to work with.
func (h *AttendanceHandler) Ping(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.LocationPingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracker.Report(id.UserID, models.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Permission records the device's location permission status.
func (h *AttendanceHandler) Permission(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracker.SetPermission(id.UserID, *req.Granted)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CheckIn runs the interactive check-in. The device may piggyback its
// current fix on the request body; it is reported before sampling.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	// The body is optional; the tracker may already hold a fresh fix.
	var req models.CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Latitude != nil && req.Longitude != nil {
		h.tracker.Report(id.UserID, models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
	}

	res := h.svc.CheckIn(c.Request.Context(), id.UserID, id.DisplayName)
	switch res.Status {
	case service.StatusRecorded:
		c.JSON(http.StatusCreated, gin.H{
			"status":          string(res.Status),
			"record":          res.Record,
			"distance_meters": res.DistanceMeters,
		})
	case service.StatusOutOfRange:
		c.JSON(http.StatusOK, gin.H{
			"status":          string(res.Status),
			"distance_meters": math.Round(res.DistanceMeters),
			"message":         "Outside the school radius; confirm to record manually",
		})
	case service.StatusPermissionDenied:
		c.JSON(http.StatusForbidden, gin.H{"status": string(res.Status), "error": "Location permission is required to record attendance"})
	case service.StatusLocationUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": string(res.Status), "error": "Could not obtain a recent location"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"status": string(res.Status), "error": "Failed to save attendance"})
	}
}

// Manual records the explicit override after an out-of-range outcome.
func (h *AttendanceHandler) Manual(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.ManualOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.RecordManualOverride(c.Request.Context(), id.UserID, id.DisplayName,
		models.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to save attendance"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded", "record": rec})
}

// History returns the caller's own attendance, most recent first.
func (h *AttendanceHandler) History(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	records, err := h.svc.History(c.Request.Context(), id.UserID)
	if err != nil {
		h.log.Error("history query failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load attendance history"})
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// AutoStart enables the periodic auto check-in loop for the session user.
func (h *AttendanceHandler) AutoStart(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.AutoStartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err := h.svc.StartAuto(id.UserID, id.DisplayName,
		time.Duration(req.IntervalSec)*time.Second,
		time.Duration(req.CooldownSec)*time.Second)
	if errors.Is(err, location.ErrPermissionDenied) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Location permission is required for auto check-in"})
		return
	}
	if err != nil {
		h.log.Error("auto start failed", zap.String("userID", id.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start auto check-in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// AutoStatus reports whether the loop is running and how many ledger
// appends it has failed so far.
func (h *AttendanceHandler) AutoStatus(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":           h.svc.AutoActive(id.UserID),
		"storage_failures": h.svc.AutoStorageFailures(id.UserID),
	})
}

// AutoStop disables the loop; stopping an inactive loop succeeds.
func (h *AttendanceHandler) AutoStop(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	h.svc.StopAuto(id.UserID)
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}
