// Package middleware holds catalogueserver's Fiber middleware: rate
// limiting tiers for its read-only query endpoints.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// GlobalRateLimiter caps every request at 1000/minute per IP, applied
// ahead of every route.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// QueryRateLimiter caps the stop/bus/route lookup endpoints at
// 200/minute per IP — generous enough for normal batch-style use, low
// enough to stop a single client from monopolizing the loaded
// snapshot.
func QueryRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":  "query rate limit exceeded",
				"limit":  200,
				"window": "1 minute",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// MapRenderLimiter caps GET /map at 5 requests per 5 minutes per IP:
// rendering the full SVG document is by far the most expensive
// response this server produces, one full projection and layer pass
// over every stop and bus in the snapshot.
func MapRenderLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 5 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "map render rate limit exceeded",
				"retry_after": 300,
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
