package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placepicker/internal/pkg/logging"
)

// requestID returns the id set by the requestid middleware, if any.
func requestID(c *fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok {
		return rid
	}
	return ""
}

// RequestIDLogMiddleware stores a request-scoped logger in the user context.
// The selection controller logs through it, so storage and publish warnings
// carry the request id of the intent that caused them.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := requestID(c)
		if rid == "" {
			return c.Next()
		}

		l := slog.Default().With("request_id", rid, "method", c.Method())
		c.SetUserContext(logging.WithLogger(c.UserContext(), l))
		return c.Next()
	}
}
