package ports

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// SimulationClient talks to the remote impact simulation / NEO search service.
type SimulationClient interface {
	Simulate(ctx context.Context, params domain.EntryParams) (*domain.SimulationResult, error)
	SearchNEO(ctx context.Context, query domain.NEOSearchQuery) ([]domain.NEO, error)
	NEODetail(ctx context.Context, des string) (json.RawMessage, error)
	Health(ctx context.Context) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishAssessment(ctx context.Context, event *domain.AssessmentEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
