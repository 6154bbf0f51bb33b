package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit caps the number of upload requests per client IP per day.
// Without Redis, or when Redis errors, uploads are not blocked.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.UploadDailyLimit <= 0 || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		// upload_limit:{ip}:{date}, reset at midnight
		now := time.Now()
		key := fmt.Sprintf("upload_limit:%s:%s", c.ClientIP(), now.Format("2006-01-02"))

		count, err := redisClient.Get(ctx, key).Int()
		switch {
		case err == redis.Nil:
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			if err := redisClient.Set(ctx, key, 1, midnight.Sub(now)).Err(); err != nil {
				slog.Warn("upload limiter failed to start counter", "key", key, "error", err)
			}
		case err != nil:
			slog.Warn("upload limiter unavailable", "error", err)
		case count >= cfg.UploadDailyLimit:
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":             false,
				"error":               "Too many uploads today. Please try again tomorrow.",
				"retry_after_hours":   int(ttl.Hours()),
				"uploads_today":       count,
				"max_uploads_per_day": cfg.UploadDailyLimit,
			})
			return
		default:
			if err := redisClient.Incr(ctx, key).Err(); err != nil {
				slog.Warn("upload limiter failed to increment", "key", key, "error", err)
			}
		}

		c.Next()
	}
}
