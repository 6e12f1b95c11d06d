package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presenca_backend/handlers"
	"presenca_backend/location"
	"presenca_backend/middleware"
	"presenca_backend/service"
	"presenca_backend/storage"
	"presenca_backend/users"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, svc *service.Service, tracker *location.Tracker, userStore *users.Store, kv storage.KV, jwtSecret []byte, schoolName string, log *zap.Logger) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userStore, jwtSecret, log)
	attendanceHandler := handlers.NewAttendanceHandler(svc, tracker, log)
	adminHandler := handlers.NewAdminHandler(svc, log)
	schoolHandler := handlers.NewSchoolHandler(schoolName, svc.Fence())
	healthHandler := handlers.NewHealthHandler(kv)

	// Public routes
	r.POST("/login", authHandler.Login)
	r.GET("/school", schoolHandler.Info)
	r.GET("/health", healthHandler.HealthCheck)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(jwtSecret, log))
	{
		// Device location reports
		protected.POST("/location/ping", attendanceHandler.Ping)
		protected.POST("/location/permission", attendanceHandler.Permission)

		// Attendance routes
		protected.POST("/attendance/check-in", attendanceHandler.CheckIn)
		protected.POST("/attendance/manual", attendanceHandler.Manual)
		protected.GET("/attendance/history", attendanceHandler.History)
		protected.POST("/attendance/auto/start", attendanceHandler.AutoStart)
		protected.POST("/attendance/auto/stop", attendanceHandler.AutoStop)
		protected.GET("/attendance/auto/status", attendanceHandler.AutoStatus)

		// Admin routes
		protected.GET("/attendance", adminHandler.Roster)
		protected.DELETE("/attendance", adminHandler.Purge)
	}
}
