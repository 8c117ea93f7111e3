package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
)

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// KeyByIPAndPath limits by client IP and route.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		return "finanzas:rl:" + path + ":" + ip
	}
}

// INCR and set the expiry on the first hit, atomically.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimit allows max requests per window per key. It is a no-op without a
// Redis client and fails open when Redis errors.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc) gin.HandlerFunc {
	if rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := keyFn(c)

		count, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int()
		if err != nil {
			logger.Get().Warnw("rate limiter unavailable", "error", err, "key", key)
			c.Next()
			return
		}

		ttl, _ := rdb.PTTL(ctx, key).Result()
		resetSec := 0
		if ttl > 0 {
			resetSec = int((ttl + time.Second - 1) / time.Second)
		}

		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			abortWithError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
