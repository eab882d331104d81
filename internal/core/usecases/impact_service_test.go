package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/core/usecases"
)

func TestImpactService_Run(t *testing.T) {
	var inserted *domain.Assessment
	repo := &mockRepo{
		insertFn: func(ctx context.Context, a *domain.Assessment) error {
			inserted = a
			return nil
		},
	}
	pub := &mockPublisher{}
	client := &mockClient{}

	svc := usecases.NewImpactService(client, nil, repo, pub, nil, 0)

	a, err := svc.Run(context.Background(), sampleParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Error("expected generated id")
	}
	if a.Params.DensityKgM3 != domain.DefaultDensityKgM3 || a.Params.Composition != domain.DefaultComposition {
		t.Errorf("expected defaults applied, got %+v", a.Params)
	}
	if len(a.Zones) != 2 || a.Bounds == nil || len(a.Overlay) == 0 {
		t.Errorf("overlay not built: zones=%d bounds=%v overlay=%d", len(a.Zones), a.Bounds, len(a.Overlay))
	}
	if inserted != a {
		t.Error("expected assessment to be persisted")
	}
	if len(pub.events) != 1 || pub.events[0].AssessmentID != a.ID {
		t.Fatalf("expected one event for %s, got %+v", a.ID, pub.events)
	}
	if pub.events[0].Regime != domain.RegimeAirburst {
		t.Errorf("unexpected event regime %s", pub.events[0].Regime)
	}
}

func TestImpactService_Run_InvalidParams(t *testing.T) {
	client := &mockClient{}
	svc := usecases.NewImpactService(client, nil, nil, nil, nil, 0)

	p := sampleParams()
	p.AngleDeg = 90

	_, err := svc.Run(context.Background(), p)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if client.simulations != 0 {
		t.Error("client should not be called with invalid params")
	}
}

func TestImpactService_Run_UpstreamError(t *testing.T) {
	client := &mockClient{
		simulateFn: func(ctx context.Context, params domain.EntryParams) (*domain.SimulationResult, error) {
			return nil, domain.ErrSimulationFailed
		},
	}
	svc := usecases.NewImpactService(client, nil, nil, nil, nil, 0)

	_, err := svc.Run(context.Background(), sampleParams())
	if !errors.Is(err, domain.ErrSimulationFailed) {
		t.Fatalf("expected ErrSimulationFailed, got %v", err)
	}
}

func TestImpactService_Run_PublishFailureIgnored(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewImpactService(&mockClient{}, nil, &mockRepo{}, pub, nil, 0)

	if _, err := svc.Run(context.Background(), sampleParams()); err != nil {
		t.Fatalf("publish failure should not fail the run: %v", err)
	}
}

func TestImpactService_Run_PersistFailure(t *testing.T) {
	repo := &mockRepo{
		insertFn: func(ctx context.Context, a *domain.Assessment) error {
			return errors.New("db down")
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewImpactService(&mockClient{}, nil, repo, pub, nil, 0)

	if _, err := svc.Run(context.Background(), sampleParams()); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.events) != 0 {
		t.Error("nothing should be published when persisting fails")
	}
}

func TestImpactService_Run_Cached(t *testing.T) {
	client := &mockClient{}
	cache := newMemCache()
	svc := usecases.NewImpactService(client, nil, nil, nil, cache, 60)

	first, err := svc.Run(context.Background(), sampleParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Run(context.Background(), sampleParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.simulations != 1 {
		t.Errorf("expected 1 upstream call, got %d", client.simulations)
	}
	if first.ID != second.ID {
		t.Errorf("expected cached assessment %s, got %s", first.ID, second.ID)
	}

	got, err := svc.Get(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("get from cache: %v", err)
	}
	if got.Result.EnergyKt != 8200 {
		t.Errorf("unexpected cached energy %v", got.Result.EnergyKt)
	}
}

func TestImpactService_Get_NotFound(t *testing.T) {
	svc := usecases.NewImpactService(&mockClient{}, nil, &mockRepo{}, nil, nil, 0)

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImpactService_Get_NoRepository(t *testing.T) {
	svc := usecases.NewImpactService(&mockClient{}, nil, nil, nil, nil, 0)

	_, err := svc.Get(context.Background(), "x")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImpactService_Recent_ClampLimit(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"default", 0, 20},
		{"negative", -3, 20},
		{"max", 500, 100},
		{"passthrough", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			repo := &mockRepo{
				listRecentFn: func(ctx context.Context, limit int) ([]domain.Assessment, error) {
					got = limit
					return nil, nil
				},
			}
			svc := usecases.NewImpactService(&mockClient{}, nil, repo, nil, nil, 0)
			if _, err := svc.Recent(context.Background(), tt.in); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected limit %d, got %d", tt.want, got)
			}
		})
	}
}

func TestImpactService_Delete(t *testing.T) {
	var deleted string
	repo := &mockRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	cache := newMemCache()
	_ = cache.Set(context.Background(), "assessment:id:abc", []byte(`{}`), 60)

	svc := usecases.NewImpactService(&mockClient{}, nil, repo, nil, cache, 60)
	if err := svc.Delete(context.Background(), "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "abc" {
		t.Errorf("expected abc deleted, got %q", deleted)
	}
	if _, err := cache.Get(context.Background(), "assessment:id:abc"); err == nil {
		t.Error("expected cache entry to be evicted")
	}
}

func TestNewAssessmentEvent(t *testing.T) {
	a := &domain.Assessment{ID: "a1", Result: *sampleResult()}
	ev := usecases.NewAssessmentEvent(a)
	if ev.AssessmentID != "a1" || ev.Center.Lat != 43.263 || ev.RadiiM[domain.Threshold1psi] != 22000 {
		t.Errorf("unexpected event %+v", ev)
	}
}
