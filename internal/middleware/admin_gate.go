package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/galleryhub/backend/internal/config"
	"github.com/gin-gonic/gin"
)

// AdminGate compares the admin header with the configured shared secret.
// The check only runs when Env is production; elsewhere every request passes.
// This is a placeholder gate, not an authentication scheme.
func AdminGate(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.IsProduction() {
			c.Next()
			return
		}

		provided := c.GetHeader(cfg.AdminHeader)
		if provided == "" {
			abortUnauthorized(c, "Admin authentication required")
			return
		}
		if cfg.AdminAPIKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.AdminAPIKey)) != 1 {
			slog.Warn("rejected admin request", "path", c.Request.URL.Path, "ip", c.ClientIP())
			abortUnauthorized(c, "Invalid admin credentials")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}
