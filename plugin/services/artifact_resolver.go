package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/ports"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// DefaultLocale is used for core manifests when none is configured.
const DefaultLocale = "en_US"

// Resolution is everything needed to reconcile one artifact.
type Resolution struct {
	Artifact   *entities.Artifact
	Manifest   *entities.Manifest
	LocalFiles []string
}

// ArtifactResolver turns an inventory entry into a Resolution: it settles
// the version, fetches the manifest and lists the local files. Skips are
// returned as *entities.SkipError.
type ArtifactResolver struct {
	fetcher         ports.ManifestFetcher
	lister          ports.DirectoryLister
	inventory       *entities.Inventory
	versions        ports.VersionResolver
	catalog         ports.VersionCatalog
	logger          *slog.Logger
	locale          string
	platformVersion string
}

// ArtifactResolverOption configures an ArtifactResolver.
type ArtifactResolverOption func(*ArtifactResolver)

// WithLocale sets the locale used for core manifests.
func WithLocale(locale string) ArtifactResolverOption {
	return func(r *ArtifactResolver) {
		if locale != "" {
			r.locale = locale
		}
	}
}

// WithPlatformVersion overrides the platform version from the inventory.
func WithPlatformVersion(version string) ArtifactResolverOption {
	return func(r *ArtifactResolver) { r.platformVersion = version }
}

// WithVersionConstraints enables constraint overrides such as "^1.2",
// resolved against the versions published in catalog.
func WithVersionConstraints(resolver ports.VersionResolver, catalog ports.VersionCatalog) ArtifactResolverOption {
	return func(r *ArtifactResolver) {
		r.versions = resolver
		r.catalog = catalog
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *slog.Logger) ArtifactResolverOption {
	return func(r *ArtifactResolver) { r.logger = l }
}

// NewArtifactResolver creates a resolver over one inventory snapshot.
func NewArtifactResolver(
	fetcher ports.ManifestFetcher,
	lister ports.DirectoryLister,
	inventory *entities.Inventory,
	opts ...ArtifactResolverOption,
) *ArtifactResolver {
	r := &ArtifactResolver{
		fetcher:   fetcher,
		lister:    lister,
		inventory: inventory,
		locale:    DefaultLocale,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve prepares installed for reconciliation. A non-empty versionOverride
// replaces the installed version of standard and must-use plugins.
func (r *ArtifactResolver) Resolve(ctx context.Context, installed entities.InstalledArtifact, versionOverride string) (*Resolution, error) {
	switch installed.Kind {
	case values.KindCoreBundled:
		return r.resolveCoreBundled(ctx, installed)
	case values.KindStandard, values.KindMustUse:
		return r.resolvePlugin(ctx, installed, versionOverride)
	default:
		return nil, fmt.Errorf("artifact %q has unknown kind %v", installed.Name, installed.Kind)
	}
}

func (r *ArtifactResolver) resolvePlugin(ctx context.Context, installed entities.InstalledArtifact, versionOverride string) (*Resolution, error) {
	version, err := r.resolveVersion(ctx, installed, versionOverride)
	if err != nil {
		return nil, err
	}

	artifact := entities.NewArtifact(installed, r.inventory.RootFor(installed.Kind), version)

	manifest, err := r.fetcher.Fetch(ctx, entities.ManifestRequest{
		Name:    installed.Name,
		Version: version,
		Kind:    installed.Kind,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Debug("manifest fetch failed", "artifact", installed.Name, "version", version, "error", err)

		if installed.Kind == values.KindMustUse && artifact.SingleFile() {
			return nil, &entities.SkipError{
				Reason:   entities.ErrUnverifiableLoader,
				Cause:    err,
				Artifact: installed.Name,
				File:     installed.MainFile,
				Version:  version,
				Kind:     installed.Kind,
			}
		}
		return nil, &entities.SkipError{
			Reason:   entities.ErrManifestUnavailable,
			Cause:    err,
			Artifact: installed.Name,
			Version:  version,
			Kind:     installed.Kind,
		}
	}

	files, err := r.localFiles(ctx, artifact)
	if err != nil {
		return nil, err
	}

	return &Resolution{Artifact: artifact, Manifest: manifest, LocalFiles: files}, nil
}

func (r *ArtifactResolver) resolveVersion(ctx context.Context, installed entities.InstalledArtifact, override string) (string, error) {
	unresolvable := func(cause error) error {
		return &entities.SkipError{
			Reason:   entities.ErrVersionUnresolvable,
			Cause:    cause,
			Artifact: installed.Name,
			Kind:     installed.Kind,
		}
	}

	if override == "" {
		version, ok := r.inventory.LookupVersion(installed.Kind, installed.MainFile)
		if !ok {
			return "", unresolvable(nil)
		}
		return version, nil
	}

	if r.versions == nil || r.catalog == nil || !values.IsVersionConstraint(override) {
		return override, nil
	}

	available, err := r.catalog.AvailableVersions(ctx, installed.Name)
	if err != nil {
		return "", unresolvable(fmt.Errorf("listing versions: %w", err))
	}
	version, err := r.versions.Resolve(override, available)
	if err != nil {
		return "", unresolvable(err)
	}
	r.logger.Debug("resolved version constraint", "artifact", installed.Name, "constraint", override, "version", version)
	return version, nil
}

// resolveCoreBundled verifies against the core manifest. Entries below the
// artifact's core path are re-keyed relative to the artifact directory.
func (r *ArtifactResolver) resolveCoreBundled(ctx context.Context, installed entities.InstalledArtifact) (*Resolution, error) {
	version := r.platformVersion
	if version == "" {
		version = r.inventory.PlatformVersion
	}
	if version == "" {
		return nil, &entities.SkipError{
			Reason:   entities.ErrVersionUnresolvable,
			Artifact: installed.Name,
			Kind:     installed.Kind,
		}
	}

	unavailable := func(cause error) error {
		return &entities.SkipError{
			Reason:   entities.ErrManifestUnavailable,
			Cause:    cause,
			Artifact: installed.Name,
			Version:  version,
			Locale:   r.locale,
			Kind:     installed.Kind,
		}
	}

	core, err := r.fetcher.Fetch(ctx, entities.ManifestRequest{
		Name:    installed.Name,
		Version: version,
		Locale:  r.locale,
		Kind:    values.KindCoreBundled,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, unavailable(err)
	}

	artifact := entities.NewArtifact(installed, r.inventory.RootFor(installed.Kind), version)
	manifest := rekeyCoreManifest(core, artifact)
	if manifest.Len() == 0 {
		return nil, unavailable(fmt.Errorf("core manifest has no entry for %s", installed.CorePath))
	}

	files, err := r.localFiles(ctx, artifact)
	if err != nil {
		return nil, err
	}

	return &Resolution{Artifact: artifact, Manifest: manifest, LocalFiles: files}, nil
}

func rekeyCoreManifest(core *entities.Manifest, artifact *entities.Artifact) *entities.Manifest {
	entries := make(map[string]values.ChecksumSet)
	if artifact.SingleFile() {
		if set, ok := core.Lookup(artifact.CorePath()); ok {
			entries[artifact.MainFile()] = set
		}
		return entities.NewManifest(entries)
	}

	prefix := path.Dir(artifact.CorePath()) + "/"
	for _, p := range core.Paths() {
		if rel, ok := strings.CutPrefix(p, prefix); ok && rel != "" {
			set, _ := core.Lookup(p)
			entries[rel] = set
		}
	}
	return entities.NewManifest(entries)
}

func (r *ArtifactResolver) localFiles(ctx context.Context, artifact *entities.Artifact) ([]string, error) {
	if artifact.SingleFile() {
		return []string{artifact.MainFile()}, nil
	}
	files, err := r.lister.ListFiles(ctx, artifact.Directory())
	if err != nil {
		return nil, fmt.Errorf("listing files of %s: %w", artifact.Name(), err)
	}
	return files, nil
}
