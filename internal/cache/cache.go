// Package cache stores computed price estimates between identical queries.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/metrics"
	"github.com/yourusername/machinery-pricer/internal/models"
)

// Store caches estimates by query key
type Store interface {
	Get(ctx context.Context, key string) (*models.Estimate, bool, error)
	Set(ctx context.Context, key string, estimate *models.Estimate) error
	Flush(ctx context.Context) error
	Stats() Stats
}

// Stats reports cache effectiveness
type Stats struct {
	Hits   uint64  `json:"hits"`
	Misses uint64  `json:"misses"`
	Ratio  float64 `json:"ratio"`
	Items  int     `json:"items"`
}

// EstimateKey builds the cache key for q:
// use_case|model|year|hours|year_tolerance|hours_tolerance|cost.
// Absent values render as "-".
func EstimateKey(q models.QuerySpec) string {
	q = q.Normalized()
	parts := []string{
		string(q.UseCase), q.Model, optInt(q.Year), optInt(q.Hours),
		strconv.Itoa(q.YearTolerance), strconv.Itoa(q.HoursTolerance), "-",
	}
	if q.CostForMargin != nil {
		parts[6] = q.CostForMargin.String()
	}
	return strings.Join(parts, "|")
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// NewStore builds the backend selected by cfg.Backend.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return NewMemoryStore(cfg.CacheTTL(), cfg.Cache.MaxSize), nil
	case "redis":
		return NewRedisStoreFromConfig(cfg.Cache, cfg.CacheTTL()), nil
	case "none":
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// counters tracks hit/miss totals shared by the concrete stores
type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.UpdateCacheHitRatio(c.snapshot(0).Ratio)
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *counters) snapshot(items int) Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Items: items}
	if total := s.Hits + s.Misses; total > 0 {
		s.Ratio = float64(s.Hits) / float64(total)
	}
	return s
}

// NoopStore never stores anything
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) (*models.Estimate, bool, error) { return nil, false, nil }
func (NoopStore) Set(context.Context, string, *models.Estimate) error { return nil }
func (NoopStore) Flush(context.Context) error { return nil }
func (NoopStore) Stats() Stats { return Stats{} }
