package ports

import (
	"context"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// ManifestFetcher retrieves the authoritative checksum manifest for an
// artifact version.
type ManifestFetcher interface {
	Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error)
}

// VersionCatalog is implemented by fetchers that can list the published
// versions of an artifact.
type VersionCatalog interface {
	AvailableVersions(ctx context.Context, name string) ([]string, error)
}

// VersionResolver converts version constraints to exact versions.
type VersionResolver interface {
	Resolve(constraint string, available []string) (string, error)
}

// ManifestStore persists fetched manifests for later offline use.
type ManifestStore interface {
	Store(ctx context.Context, req entities.ManifestRequest, manifest *entities.Manifest) error
}
