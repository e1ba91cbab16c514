package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimiter allows max requests per caller within expiration. Callers are
// keyed by user ID once authenticated and by IP before that.
func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   expiration,
		KeyGenerator: callerKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests, please try again later",
				"code":    "RATE_LIMITED",
			})
		},
	})
}

func callerKey(c *fiber.Ctx) string {
	if user, err := CurrentUser(c); err == nil {
		return "user:" + strconv.FormatInt(user.ID, 10)
	}
	return "ip:" + c.IP()
}

// FriendRequestLimiter caps outgoing friend requests
func FriendRequestLimiter() fiber.Handler {
	return RateLimiter(20, 10*time.Minute)
}

// WriteLimiter for messages, responses and removals
func WriteLimiter() fiber.Handler {
	return RateLimiter(30, 1*time.Minute)
}

// ReadLimiter for list and lookup endpoints
func ReadLimiter() fiber.Handler {
	return RateLimiter(100, 1*time.Minute)
}
