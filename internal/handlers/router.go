package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/galleryhub/backend/internal/middleware"
	"github.com/galleryhub/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// RouterDeps bundles what the router wires into handlers and middleware.
// Redis and Registry are optional.
type RouterDeps struct {
	Config          *config.Config
	Logger          *slog.Logger
	Redis           *redis.Client
	Registry        *prometheus.Registry
	GalleryService  *services.GalleryService
	CategoryService *services.CategoryService
	AdminService    *services.AdminService
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(recoverPanic))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	if cfg.IsDevelopment() {
		router.Use(ExposeStack())
	}

	if cfg.MetricsEnabled {
		var reg prometheus.Registerer = prometheus.DefaultRegisterer
		var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
		if deps.Registry != nil {
			reg, gatherer = deps.Registry, deps.Registry
		}
		metrics, err := middleware.NewHTTPMetrics(reg)
		if err != nil {
			return nil, err
		}
		router.Use(metrics.Handler())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(deps.Redis, cfg))

	health := healthHandler(cfg)
	router.GET("/health", health)

	galleryHandler := NewGalleryHandler(deps.GalleryService, deps.CategoryService, cfg)
	adminHandler := NewAdminHandler(deps.AdminService, deps.GalleryService, deps.CategoryService)
	adminGate := middleware.AdminGate(cfg)

	api := router.Group(cfg.APIBasePath)
	{
		api.GET("/health", health)

		// CORS preflight for every API path
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		gallery := api.Group("/gallery")
		{
			gallery.GET("/images", galleryHandler.GetImages)
			gallery.GET("/images/:id", galleryHandler.GetImage)
			gallery.GET("/categories", galleryHandler.GetCategories)
			gallery.GET("/stats", galleryHandler.GetStats)

			writes := gallery.Group("", adminGate)
			{
				uploads := writes.Group("", middleware.UploadRateLimit(deps.Redis, cfg))
				uploads.POST("/images", galleryHandler.UploadImage)
				uploads.POST("/images/batch", galleryHandler.UploadImages)

				writes.PUT("/images/:id", galleryHandler.UpdateImage)
				writes.DELETE("/images/:id", galleryHandler.DeleteImage)
			}
		}

		admin := api.Group("/admin", adminGate)
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			admin.GET("/images", adminHandler.GetImages)
			admin.GET("/images/:id", adminHandler.GetImage)
			admin.PATCH("/images/:id/status", adminHandler.UpdateImageStatus)
			admin.PATCH("/images/:id/featured", adminHandler.ToggleFeatured)

			admin.GET("/categories", adminHandler.GetCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

			admin.GET("/storage", adminHandler.GetStorageUsage)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Route " + c.Request.URL.Path + " not found",
		})
	})

	return router, nil
}

func healthHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "Gallery API is running",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.Env,
		})
	}
}
