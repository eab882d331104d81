package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	var thresholds []string
	if deps.Impact != nil {
		thresholds = deps.Impact.OverlayKeys()
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "healthy",
			"uptime":     time.Since(startedAt).String(),
			"version":    version,
			"thresholds": thresholds,
		})
	}
}

// ReadyHandler checks the upstream simulation service, DB, NATS and cache.
// Only the upstream is required for readiness; the others degrade features.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Upstream simulation service
		if deps.Upstream != nil {
			if err := deps.Upstream.Health(ctx); err != nil {
				checks["upstream"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["upstream"] = "ok"
			}
		} else {
			checks["upstream"] = "not configured"
			allOK = false
		}

		checks["database"] = pingCheck(ctx, deps.DB)
		checks["cache"] = pingCheck(ctx, deps.Cache)

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
			}
		} else {
			checks["nats"] = "not configured"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
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
