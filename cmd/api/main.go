package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/galleryhub/backend/internal/handlers"
	"github.com/galleryhub/backend/internal/logger"
	"github.com/galleryhub/backend/internal/models"
	"github.com/galleryhub/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.New()
	log := logger.New(cfg)
	slog.SetDefault(log)

	if envErr != nil {
		log.Info("no .env file found, using environment variables")
	}

	db, err := models.InitDB(cfg)
	if err != nil {
		fatal(log, "failed to initialize database", err)
	}
	if err := models.Migrate(db); err != nil {
		fatal(log, "failed to run migrations", err)
	}

	// Redis backs the shared rate limiter and the daily upload quota
	var redisClient *redis.Client
	if cfg.RateLimitBackend == "redis" || cfg.UploadDailyLimit > 0 {
		redisClient = models.InitRedis(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, falling back to in-memory rate limiting", "error", err)
			redisClient.Close()
			redisClient = nil
		}
		cancel()
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	observer, err := services.NewStorageObserver(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "failed to register storage metrics", err)
	}
	storage, err := services.NewS3Storage(cfg, observer)
	if err != nil {
		fatal(log, "failed to init object storage", err)
	}

	galleryService := services.NewGalleryService(db, cfg, storage, log)
	categoryService := services.NewCategoryService(db)
	adminService := services.NewAdminService(db)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.AdminAPIKey == "" {
			log.Warn("ADMIN_API_KEY is empty, all admin requests will be rejected")
		}
	}

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Config:          cfg,
		Logger:          log,
		Redis:           redisClient,
		GalleryService:  galleryService,
		CategoryService: categoryService,
		AdminService:    adminService,
	})
	if err != nil {
		fatal(log, "failed to build router", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // batch uploads
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("starting server", "port", cfg.Port, "env", cfg.Env, "base_path", cfg.APIBasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		fatal(log, "server forced to shutdown", err)
	}

	log.Info("server exited")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
