package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/core/ports"
	"github.com/samirrijal/meteorguard/internal/pkg/metrics"
)

// NEOService handles near-earth-object lookups with read-through caching.
type NEOService struct {
	client   ports.SimulationClient
	cache    ports.CacheService
	cacheTTL int
}

// NewNEOService creates a new NEOService. cacheTTL is used for searches;
// detail records are cached six times longer.
func NewNEOService(client ports.SimulationClient, cache ports.CacheService, cacheTTL int) *NEOService {
	return &NEOService{client: client, cache: cache, cacheTTL: cacheTTL}
}

// Search returns catalogue rows, optionally restricted to PHAs.
func (s *NEOService) Search(ctx context.Context, query domain.NEOSearchQuery) ([]domain.NEO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("neo:search:%t:%d", query.PHA, query.Limit)
	if data, ok := s.cached(ctx, cacheKey, "neo_search"); ok {
		var rows []domain.NEO
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
	}

	rows, err := s.client.SearchNEO(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rows); err == nil {
		s.store(ctx, cacheKey, data, s.cacheTTL)
	}
	return rows, nil
}

// Detail returns the raw catalogue record for a designation.
func (s *NEOService) Detail(ctx context.Context, des string) (json.RawMessage, error) {
	des = strings.TrimSpace(des)
	if des == "" {
		return nil, fmt.Errorf("%w: designation is required", domain.ErrInvalidInput)
	}

	cacheKey := "neo:detail:" + strings.ToLower(des)
	if data, ok := s.cached(ctx, cacheKey, "neo_detail"); ok && json.Valid(data) {
		return json.RawMessage(data), nil
	}

	raw, err := s.client.NEODetail(ctx, des)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cacheKey, raw, s.cacheTTL*6)
	return raw, nil
}

func (s *NEOService) cached(ctx context.Context, key, op string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return data, true
}

func (s *NEOService) store(ctx context.Context, key string, data []byte, ttl int) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	_ = s.cache.Set(ctx, key, data, ttl)
}
