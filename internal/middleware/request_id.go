package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader is the response header carrying each request's
// correlation id.
const RequestIDHeader = "X-Request-Id"

// RequestID stamps every request with a fresh UUID, stored in
// c.Locals("request_id") and echoed back on RequestIDHeader, so an
// HTTP query can be correlated with the progresslog lines it emits.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.New().String()
		c.Locals("request_id", id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
