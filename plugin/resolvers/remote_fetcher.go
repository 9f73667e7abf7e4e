package resolvers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/ports"
	"github.com/reglet-dev/plugin-checksum/plugin/services"
)

// RemoteFetcher is the terminal chain link: it asks a remote source and
// optionally writes the result through to a local store.
type RemoteFetcher struct {
	services.BaseFetcher
	remote ports.ManifestFetcher
	store  ports.ManifestStore
	logger *slog.Logger
}

// NewRemoteFetcher creates a remote chain link. store may be nil.
func NewRemoteFetcher(remote ports.ManifestFetcher, store ports.ManifestStore, logger *slog.Logger) *RemoteFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteFetcher{
		remote: remote,
		store:  store,
		logger: logger,
	}
}

// Fetch asks the remote source and stores what it returns.
func (r *RemoteFetcher) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	r.logger.Debug("fetching checksums", "request", req.String())

	m, err := r.remote.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("remote fetch failed: %w", err)
	}

	if r.store != nil {
		if err := r.store.Store(ctx, req, m); err != nil {
			r.logger.Warn("failed to store manifest", "request", req.String(), "error", err)
		}
	}

	return m, nil
}

// AvailableVersions forwards to the remote source when it offers a catalog.
func (r *RemoteFetcher) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	catalog, ok := r.remote.(ports.VersionCatalog)
	if !ok {
		return nil, fmt.Errorf("source cannot list versions of %s", name)
	}
	return catalog.AvailableVersions(ctx, name)
}
