package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteorguard/internal/core/ports"
	"github.com/samirrijal/meteorguard/internal/core/usecases"
)

// Pinger is implemented by backing stores checked by /v1/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// Only Impact and NEO are required; unset fields are reported as
// "not configured" by the readiness check.
type Dependencies struct {
	Impact   *usecases.ImpactService
	NEO      *usecases.NEOService
	Upstream ports.SimulationClient
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
	// DocsPath is the OpenAPI document served at /docs/openapi.yaml.
	DocsPath string
	// Version is reported by /v1/health.
	Version string
}
