package registry

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"envpin/pkg/logging"
)

const defaultCacheSize = 512

type cacheKey struct {
	name, constraint, platform string
}

// CachedRegistry memoizes successful lookups of an underlying Registry.
// Failures are never cached and never retried. The key includes the platform,
// so one platform's lookups cannot satisfy another's.
type CachedRegistry struct {
	next  Registry
	cache *lru.Cache[cacheKey, Artifact]
}

// NewCachedRegistry wraps next with an LRU of the given size (<= 0 uses the default).
func NewCachedRegistry(next Registry, size int) (*CachedRegistry, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[cacheKey, Artifact](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry cache: %w", err)
	}
	return &CachedRegistry{next: next, cache: cache}, nil
}

// Lookup implements Registry.
func (r *CachedRegistry) Lookup(ctx context.Context, name, constraint, platform string) (Artifact, error) {
	key := cacheKey{name: name, constraint: constraint, platform: platform}
	if a, ok := r.cache.Get(key); ok {
		logging.Debug("Registry", "cache hit for %s %q on %s", name, constraint, platform)
		return a, nil
	}

	a, err := r.next.Lookup(ctx, name, constraint, platform)
	if err != nil {
		return Artifact{}, err
	}
	r.cache.Add(key, a)
	logging.Debug("Registry", "cached %s %q on %s (%d entries)", name, constraint, platform, r.Len())
	return a, nil
}

// Len reports the number of cached lookups.
func (r *CachedRegistry) Len() int {
	return r.cache.Len()
}
