package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/core/ports"
	"github.com/samirrijal/meteorguard/internal/pkg/metrics"
	"github.com/samirrijal/meteorguard/internal/pkg/telemetry"
)

// Page size bounds for Recent.
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// ImpactService runs simulations and turns them into renderable assessments.
// repo, publisher and cache are optional.
type ImpactService struct {
	client    ports.SimulationClient
	overlay   *OverlayBuilder
	repo      ports.AssessmentRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
	cacheTTL  int

	now   func() time.Time
	newID func() string
}

// NewImpactService creates a new ImpactService.
func NewImpactService(
	client ports.SimulationClient,
	overlay *OverlayBuilder,
	repo ports.AssessmentRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	cacheTTL int,
) *ImpactService {
	if overlay == nil {
		overlay = NewOverlayBuilder(nil, 0)
	}
	return &ImpactService{
		client:    client,
		overlay:   overlay,
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run simulates params, builds the overlay, persists and publishes the
// assessment. Identical params within the cache TTL return the cached run.
func (s *ImpactService) Run(ctx context.Context, params domain.EntryParams) (*domain.Assessment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "impact.run")
	defer span.End()

	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	cacheKey := "assessment:params:" + paramsDigest(params)
	if a, ok := s.cachedAssessment(ctx, cacheKey, "assessment_run"); ok {
		span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
		return a, nil
	}

	a, err := s.Evaluate(ctx, params)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrRegime, a.Result.Regime))

	if err := s.Save(ctx, a); err != nil {
		return nil, err
	}
	if err := s.Publish(ctx, a); err != nil {
		slog.WarnContext(ctx, "publish assessment failed", "assessment_id", a.ID, "error", err)
	}

	s.cacheAssessment(ctx, cacheKey, a)
	s.cacheAssessment(ctx, "assessment:id:"+a.ID, a)
	return a, nil
}

// Evaluate calls the simulation service and builds the overlay without any
// side effects.
func (s *ImpactService) Evaluate(ctx context.Context, params domain.EntryParams) (*domain.Assessment, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	result, err := s.client.Simulate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	zones, err := s.overlay.Build(result)
	if err != nil {
		return nil, fmt.Errorf("build overlay: %w", err)
	}

	overlay, err := json.Marshal(FeatureCollection(zones))
	if err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}

	metrics.SimulationsTotal.WithLabelValues(result.Regime).Inc()

	return &domain.Assessment{
		ID:        s.newID(),
		Params:    params,
		Result:    *result,
		Zones:     zones,
		Overlay:   overlay,
		Bounds:    OverlayBounds(zones),
		CreatedAt: s.now().UTC(),
	}, nil
}

// Save persists an assessment when a repository is configured.
func (s *ImpactService) Save(ctx context.Context, a *domain.Assessment) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// Publish broadcasts an assessment event when a publisher is configured.
func (s *ImpactService) Publish(ctx context.Context, a *domain.Assessment) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishAssessment(ctx, NewAssessmentEvent(a))
}

// Delete removes a persisted assessment and its cached copy.
func (s *ImpactService) Delete(ctx context.Context, id string) error {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "assessment:id:"+id)
	}
	if s.repo == nil {
		return nil
	}
	return s.repo.Delete(ctx, id)
}

// Get returns a stored assessment.
func (s *ImpactService) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	if a, ok := s.cachedAssessment(ctx, "assessment:id:"+id, "assessment_get"); ok {
		return a, nil
	}
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheAssessment(ctx, "assessment:id:"+id, a)
	return a, nil
}

// Recent lists the newest assessments.
func (s *ImpactService) Recent(ctx context.Context, limit int) ([]domain.Assessment, error) {
	limit = RecentLimit(limit)
	if s.repo == nil {
		return []domain.Assessment{}, nil
	}
	return s.repo.ListRecent(ctx, limit)
}

// RecentLimit clamps a requested page size to 1..MaxRecentLimit, mapping
// non-positive values to DefaultRecentLimit.
func RecentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// OverlayKeys returns the overpressure keys rendered as rings.
func (s *ImpactService) OverlayKeys() []string {
	return s.overlay.Keys()
}

// NewAssessmentEvent summarises an assessment for broadcast.
func NewAssessmentEvent(a *domain.Assessment) *domain.AssessmentEvent {
	ev := &domain.AssessmentEvent{
		AssessmentID: a.ID,
		Regime:       a.Result.Regime,
		EnergyKt:     a.Result.EnergyKt,
		RadiiM:       a.Result.OverpressureRadiiM,
		CreatedAt:    a.CreatedAt,
	}
	if a.Result.Center != nil {
		ev.Center = *a.Result.Center
	}
	return ev
}

func (s *ImpactService) cachedAssessment(ctx context.Context, key, op string) (*domain.Assessment, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return nil, false
	}
	var a domain.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return &a, true
}

func (s *ImpactService) cacheAssessment(ctx context.Context, key string, a *domain.Assessment) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if data, err := json.Marshal(a); err == nil {
		_ = s.cache.Set(ctx, key, data, s.cacheTTL)
	}
}

func paramsDigest(p domain.EntryParams) string {
	data, _ := json.Marshal(p)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
