package app

import (
	"context"
	"time"

	"avular-packages/internal/types"
)

// candidateCacheTTL bounds how long a cached candidate list is served
// before the next lookup falls back to the Repository Scanner, so a
// package added to disk during a long-lived process is eventually
// picked up without an explicit cache-cmd invalidation.
const candidateCacheTTL = 5 * time.Minute

// CachedCandidates serves s.Repository.Candidates through the
// intelligent cache (§4.4): an L1/L2 hit short-circuits the scanner
// entirely, and every lookup is recorded for the predictive preheater.
func (s Service) CachedCandidates(ctx context.Context, name string) ([]types.Package, error) {
	s.Preheater.Record(types.AccessTraceEntry{Key: name, Timestamp: s.Clock()})

	if cached, ok, err := s.PackageCache.Get(name); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	pkgs, err := s.Repository.Candidates(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.PackageCache.Put(name, pkgs, candidateCacheTTL); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// CacheStats reports the current cache hit/miss/eviction counters
// (the `pkg-cache stats` command, §6).
func (s Service) CacheStats() types.CacheStats {
	return s.PackageCache.Stats()
}

// CachePreheat warms the cache for the names the preheater predicts
// are likely to follow key, up to limit names (the `pkg-cache preheat`
// command, §6).
func (s Service) CachePreheat(ctx context.Context, key string, limit int) ([]string, error) {
	predicted := s.Preheater.Predict(key, limit)
	for _, name := range predicted {
		if _, err := s.CachedCandidates(ctx, name); err != nil {
			return nil, err
		}
	}
	return predicted, nil
}

// CacheTune feeds the current stats to the adaptive tuner and returns
// its recommendation, if any (the `pkg-cache tune` command, §6).
func (s Service) CacheTune() *types.TuningRecommendation {
	stats := s.PackageCache.Stats()
	s.Tuner.Observe(stats)
	return s.Tuner.Recommend()
}

// CacheInvalidate drops a single cached candidate list, forcing the
// next CachedCandidates call for name to re-scan.
func (s Service) CacheInvalidate(name string) error {
	return s.PackageCache.Remove(name)
}
