package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"titlehub/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// AuthRateLimiter throttles the /auth endpoints per client IP. The code
// flow is a shared secret, so unlimited retries would let a caller brute
// force confirmation codes. With Redis configured the window is shared
// across instances; otherwise an in-process token bucket applies.
type AuthRateLimiter struct {
	perMinute int
	burst     int
	rdb       *redis.Client
	logger    *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewAuthRateLimiter(cfg *config.Config, rdb *redis.Client, logger *slog.Logger) *AuthRateLimiter {
	return &AuthRateLimiter{
		perMinute: cfg.AuthRatePerMinute,
		burst:     cfg.AuthRateBurst,
		rdb:       rdb,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (l *AuthRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed := true
		if l.rdb != nil {
			allowed = l.allowRedis(c.Request.Context(), ip)
		} else {
			allowed = l.limiterFor(ip).Allow()
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *AuthRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// allowRedis is a fixed one-minute window per IP. A Redis failure fails
// open; throttling is protection, not a contract.
func (l *AuthRateLimiter) allowRedis(ctx context.Context, ip string) bool {
	key := fmt.Sprintf("ratelimit:auth:%s", ip)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request", "error", err)
		return true
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, time.Minute).Err(); err != nil {
			l.logger.Warn("failed to set rate limit window", "error", err)
		}
	}
	return n <= int64(l.perMinute)
}
