package middleware

import (
	"strings"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS creates a CORS middleware
func CORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = cfg.AllowedMethods
	corsConfig.AllowHeaders = append([]string{}, cfg.AllowedHeaders...)
	if cfg.AdminHeader != "" {
		corsConfig.AddAllowHeaders(cfg.AdminHeader)
	}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 24 * time.Hour

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = true
	}
	corsConfig.AllowOriginFunc = func(origin string) bool {
		// any origin is accepted in development
		if cfg.IsDevelopment() {
			return true
		}
		return allowed[strings.TrimRight(origin, "/")]
	}

	return cors.New(corsConfig)
}
