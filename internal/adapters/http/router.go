package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/meteorguard/internal/pkg/metrics"
)

// upstreamTimeout bounds handlers that call the simulation service.
const upstreamTimeout = 30 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: simulations are expensive upstream, 60 per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/simulate", timeout.NewWithContext(SimulateHandler(deps), upstreamTimeout))
	v1.Get("/assessments", timeout.NewWithContext(ListAssessmentsHandler(deps), 15*time.Second))
	v1.Get("/assessments/:id", timeout.NewWithContext(GetAssessmentHandler(deps), 15*time.Second))
	v1.Get("/assessments/:id/overlay", timeout.NewWithContext(AssessmentOverlayHandler(deps), 15*time.Second))
	v1.Post("/neo/search", timeout.NewWithContext(NEOSearchHandler(deps), upstreamTimeout))
	v1.Get("/neo/:des", timeout.NewWithContext(NEODetailHandler(deps), upstreamTimeout))
	v1.Get("/circle", CircleHandler())

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), upstreamTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.DocsPath)

	// WebSocket relay of assessment events
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
