package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openclaw/bountyboard/internal/config"
)

// RateLimit returns a Redis-backed fixed-window limiter keyed by client
// IP and route. It protects the unauthenticated auth endpoints (login,
// register, forgot-password) against brute force and OTP flooding.
// When the limiter is disabled or Redis is unavailable the middleware
// passes requests through rather than failing them.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	// INCR + first-hit EXPIRE in one round-trip so the window always
	// gets a TTL even under concurrent first requests.
	windowScript := redis.NewScript(`
        local n = redis.call('INCR', KEYS[1])
        if n == 1 then
            redis.call('PEXPIRE', KEYS[1], ARGV[1])
        end
        local ttl = redis.call('PTTL', KEYS[1])
        return { n, ttl }
    `)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := strings.Join([]string{cfg.Prefix, "ip", ip, "route", c.Request().Method + " " + c.Path()}, ":")

			ctx := c.Request().Context()
			vals, err := windowScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Result()
			if err != nil {
				// limiter trouble never blocks traffic
				return next(c)
			}
			arr, ok := vals.([]interface{})
			if !ok || len(arr) != 2 {
				return next(c)
			}
			count := asInt64(arr[0])
			ttlMs := asInt64(arr[1])

			remaining := int64(cfg.Max) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Max) {
				retry := int(time.Duration(ttlMs) * time.Millisecond / time.Second)
				if retry < 1 {
					retry = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"message":     "rate limit exceeded",
					"retry_after": retry,
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
