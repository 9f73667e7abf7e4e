package resolvers

import (
	"context"
	"sync"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/services"
)

// MemoryFetcher memoizes manifests for the lifetime of a run so that an
// artifact installed both as a plugin and a must-use plugin, or several
// core-bundled artifacts, trigger a single upstream request.
type MemoryFetcher struct {
	services.BaseFetcher
	mu    sync.Mutex
	cache map[string]*entities.Manifest
}

// NewMemoryFetcher creates an empty in-memory cache.
func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{cache: make(map[string]*entities.Manifest)}
}

// Fetch returns the cached manifest, otherwise delegates to next.
func (f *MemoryFetcher) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	key := req.CacheKey()

	f.mu.Lock()
	m, ok := f.cache[key]
	f.mu.Unlock()
	if ok {
		return m, nil
	}

	m, err := f.FetchNext(ctx, req)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cache[key] = m
	f.mu.Unlock()
	return m, nil
}

// Len returns the number of cached manifests.
func (f *MemoryFetcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}
