package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness plus catalog size and whether the observer
// position has arrived. It never fails while the process can answer.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		position := statusAwaitingPosition
		if deps.Places.Available().Resolved {
			position = statusResolved
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
			"places":   len(deps.Places.Catalog()),
			"position": position,
		})
	}
}

// ReadyHandler answers 503 until the selection storage is reachable. NATS is
// optional: it only fails readiness when configured and disconnected.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := map[string]string{
			"storage": pingCheck(ctx, deps.Storage),
			"nats":    "not configured",
		}
		if deps.NATS != nil {
			checks["nats"] = "ok"
			if !deps.NATS.IsConnected() {
				checks["nats"] = "disconnected"
			}
		}

		ready := checks["storage"] == "ok" && checks["nats"] != "disconnected"
		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}

func pingCheck(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
