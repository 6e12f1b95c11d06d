package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presenca_backend/config"
	"presenca_backend/ledger"
	"presenca_backend/location"
	"presenca_backend/logger"
	"presenca_backend/routes"
	"presenca_backend/scheduler"
	"presenca_backend/service"
	"presenca_backend/storage"
	"presenca_backend/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	kv, err := openStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("store error", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer kv.Close()

	userStore := users.NewStore(kv, zlog)
	if err := userStore.Seed(ctx); err != nil {
		zlog.Warn("user seed failed", zap.Error(err))
	}

	attLedger := ledger.New(kv, zlog)
	tracker := location.NewTracker(cfg.LocationMaxAge)
	sched := scheduler.NewManager(tracker, attLedger, zlog)
	svc := service.New(cfg.Fence(), attLedger, tracker, sched, service.RoleAccess{}, zlog,
		cfg.AutoCheckInterval, cfg.AutoCheckCooldown)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Setup CORS - Simplified for mobile app
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.AllowMethods = []string{
		"GET",
		"POST",
		"PUT",
		"DELETE",
		"PATCH",
	}
	r.Use(cors.New(corsConfig))

	routes.SetupRoutes(r, svc, tracker, userStore, kv, []byte(cfg.JWTSecret), cfg.SchoolName, zlog)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	// Stop auto check-in loops before the server so no append races the
	// store teardown.
	sched.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("forced shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return storage.OpenPostgres(storage.PostgresConfig{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		})
	case "sqlite":
		return storage.OpenSQLite(ctx, filepath.Join(cfg.StorePath, "presenca.db"))
	case "memory":
		return storage.NewMemory(), nil
	default:
		return storage.NewFile(cfg.StorePath)
	}
}
