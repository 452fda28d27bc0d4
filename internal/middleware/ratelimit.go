package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/docarchive/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitMiddleware is a fixed-window counter per path and client IP. Every
// hit re-issues EXPIRE NX so a window whose expiry was lost still closes. It
// fails open when Redis is unreachable.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("rl:%s:%s", c.Path(), c.IP())

		var incr *redis.IntCmd
		var expire *redis.BoolCmd
		_, _ = rdb.Pipelined(c.UserContext(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.UserContext(), key)
			expire = pipe.ExpireNX(c.UserContext(), key, window)
			return nil
		})
		count, err := incr.Result()
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err))
			return c.Next()
		}
		if err := expire.Err(); err != nil {
			log.Warn("rate limit expiry not set", zap.String("key", key), zap.Error(err))
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.Fail("rate limit exceeded"))
		}

		return c.Next()
	}
}
