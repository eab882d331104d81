package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/meteorguard/internal/adapters/http"
	"github.com/samirrijal/meteorguard/internal/adapters/meteorapi"
	natsadapter "github.com/samirrijal/meteorguard/internal/adapters/nats"
	"github.com/samirrijal/meteorguard/internal/adapters/postgres"
	"github.com/samirrijal/meteorguard/internal/adapters/valkey"
	"github.com/samirrijal/meteorguard/internal/core/ports"
	"github.com/samirrijal/meteorguard/internal/core/usecases"
	"github.com/samirrijal/meteorguard/internal/pkg/config"
	"github.com/samirrijal/meteorguard/internal/pkg/logging"
	"github.com/samirrijal/meteorguard/internal/pkg/metrics"
	"github.com/samirrijal/meteorguard/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("meteorguard-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(logging.LevelFromEnv(), "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Upstream simulation service
	client, err := meteorapi.New(meteorapi.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		Timeout:            cfg.Upstream.Timeout(),
		UserAgent:          cfg.Upstream.UserAgent,
		RequiredThresholds: cfg.Overlay.Thresholds,
	})
	if err != nil {
		log.Fatalf("upstream client: %v", err)
	}

	deps := &http.Dependencies{
		Upstream: client,
		DocsPath: http.DefaultDocsPath,
		Version:  version,
	}

	// Database (optional: assessments are not persisted without it)
	var repo ports.AssessmentRepository
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, assessments will not be persisted", "error", err)
	} else {
		defer db.Close()
		repo = postgres.NewAssessmentRepo(db)
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "meteorguard")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		deps.NATS = natsConn
	}

	// Use cases
	overlay := usecases.NewOverlayBuilder(usecases.ThresholdsFromKeys(cfg.Overlay.Thresholds), cfg.Overlay.Steps)
	deps.Impact = usecases.NewImpactService(client, overlay, repo, publisher, cache, cfg.Cache.AssessmentTTL)
	deps.NEO = usecases.NewNEOService(client, cache, cfg.Cache.NEOTTL)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // simulation requests are small
		AppName:      "MeteorGuard API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "upstream", cfg.Upstream.BaseURL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the database pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
