package services

import (
	"context"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// ManifestSource is one link in a manifest lookup chain.
// Implements Chain of Responsibility pattern.
type ManifestSource interface {
	// Fetch returns the manifest or delegates to the next source.
	Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error)

	// SetNext sets the next source in the chain.
	SetNext(next ManifestSource)
}

// BaseFetcher provides common chain-of-responsibility logic.
type BaseFetcher struct {
	next ManifestSource
}

// SetNext sets the next source in chain.
func (b *BaseFetcher) SetNext(next ManifestSource) {
	b.next = next
}

// FetchNext delegates to the next source in chain.
func (b *BaseFetcher) FetchNext(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	if b.next == nil {
		return nil, &entities.ManifestNotFoundError{Request: req}
	}
	return b.next.Fetch(ctx, req)
}

// Chain links sources in order and returns the head.
func Chain(sources ...ManifestSource) ManifestSource {
	if len(sources) == 0 {
		return nil
	}
	for i := 0; i < len(sources)-1; i++ {
		sources[i].SetNext(sources[i+1])
	}
	return sources[0]
}
