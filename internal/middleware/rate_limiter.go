package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter picks the limiter backend from config: an in-process token
// bucket per client IP (default, reset on restart) or a Redis fixed window
// shared between instances.
func RateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	if cfg.RateLimitBackend == "redis" && redisClient != nil {
		return RedisRateLimiter(redisClient, cfg)
	}
	return MemoryRateLimiter(cfg)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	visitors    map[string]*visitor
	ttl         time.Duration
	lastCleanup time.Time
}

func newIPLimiter(requests int, window time.Duration, burst int) *ipLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = requests
	}
	return &ipLimiter{
		limit:       rate.Every(window / time.Duration(requests)),
		burst:       burst,
		visitors:    make(map[string]*visitor),
		ttl:         window,
		lastCleanup: time.Now(),
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.ttl {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastCleanup = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// MemoryRateLimiter limits each client IP with a token bucket.
func MemoryRateLimiter(cfg *config.Config) gin.HandlerFunc {
	limiter := newIPLimiter(cfg.RateLimitRequests, cfg.RateLimitDuration, cfg.RateLimitBurst)
	return func(c *gin.Context) {
		lim := limiter.get(c.ClientIP())
		if !lim.Allow() {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitRequests))
			c.Header("X-RateLimit-Remaining", "0")
			abortTooManyRequests(c, limiter.limit)
			return
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(lim.Tokens())))
		c.Next()
	}
}

// RedisRateLimiter is a fixed window counter per IP kept in Redis. If Redis
// is unreachable the request is let through.
func RedisRateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := redisClient.Expire(ctx, key, cfg.RateLimitDuration).Err(); err != nil {
				slog.Warn("rate limiter failed to set expiry", "key", key, "error", err)
			}
		}

		remaining := cfg.RateLimitRequests - int(count)
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitRequests))
		if remaining < 0 {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "Too many requests, please try again later.",
				"retry_after": ttl.Seconds(),
			})
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}

func abortTooManyRequests(c *gin.Context, limit rate.Limit) {
	retryAfter := 1.0
	if limit > 0 {
		retryAfter = 1 / float64(limit)
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success":     false,
		"error":       "Too many requests, please try again later.",
		"retry_after": retryAfter,
	})
}
