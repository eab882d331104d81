package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// --- Mock SimulationClient ---

type mockClient struct {
	simulateFn  func(ctx context.Context, params domain.EntryParams) (*domain.SimulationResult, error)
	searchFn    func(ctx context.Context, query domain.NEOSearchQuery) ([]domain.NEO, error)
	detailFn    func(ctx context.Context, des string) (json.RawMessage, error)
	simulations int
}

func (m *mockClient) Simulate(ctx context.Context, params domain.EntryParams) (*domain.SimulationResult, error) {
	m.simulations++
	if m.simulateFn != nil {
		return m.simulateFn(ctx, params)
	}
	return sampleResult(), nil
}

func (m *mockClient) SearchNEO(ctx context.Context, query domain.NEOSearchQuery) ([]domain.NEO, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

func (m *mockClient) NEODetail(ctx context.Context, des string) (json.RawMessage, error) {
	if m.detailFn != nil {
		return m.detailFn(ctx, des)
	}
	return json.RawMessage(`{}`), nil
}

func (m *mockClient) Health(ctx context.Context) error { return nil }

// --- Mock AssessmentRepository ---

type mockRepo struct {
	insertFn     func(ctx context.Context, a *domain.Assessment) error
	getByIDFn    func(ctx context.Context, id string) (*domain.Assessment, error)
	listRecentFn func(ctx context.Context, limit int) ([]domain.Assessment, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockRepo) Insert(ctx context.Context, a *domain.Assessment) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, a)
	}
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepo) ListRecent(ctx context.Context, limit int) ([]domain.Assessment, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	err    error
	events []*domain.AssessmentEvent
}

func (m *mockPublisher) PublishAssessment(ctx context.Context, event *domain.AssessmentEvent) error {
	m.events = append(m.events, event)
	return m.err
}

// --- In-memory cache ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Fixtures ---

func sampleParams() domain.EntryParams {
	return domain.EntryParams{
		DiameterM:   50,
		VelocityKmS: 17,
		AngleDeg:    45,
		Lat:         43.263,
		Lon:         -2.935,
	}
}

func sampleResult() *domain.SimulationResult {
	return &domain.SimulationResult{
		Regime:   domain.RegimeAirburst,
		EnergyKt: 8200,
		Center:   &domain.GeoPoint{Lat: 43.263, Lon: -2.935},
		OverpressureRadiiM: map[string]float64{
			domain.Threshold1psi: 22000,
			domain.Threshold5psi: 8000,
		},
	}
}
