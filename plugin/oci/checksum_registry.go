// Package oci serves checksum manifests published as OCI artifacts.
package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/reglet-dev/plugin-checksum/netutil"
	"github.com/reglet-dev/plugin-checksum/parser"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/ports"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

const (
	// ArtifactType is the OCI artifact type of a checksum manifest.
	ArtifactType = "application/vnd.reglet.checksums.v1"
	// ChecksumLayerMediaType is the media type of the layer holding the
	// JSON checksum document.
	ChecksumLayerMediaType = "application/vnd.reglet.checksums.v1+json"

	coreRepository = "core"
	maxLayerSize   = 10 * 1024 * 1024
)

// TargetFactory opens the repository a reference lives in.
type TargetFactory func(ctx context.Context, ref values.ManifestReference) (oras.Target, error)

// RegistryFetcher implements ports.ManifestFetcher and ports.ManifestStore
// on top of an OCI registry. Plugin manifests live at
// <registry>/<repository>/<name>:<version>, core manifests at
// <registry>/<repository>/core:<version>-<locale>.
type RegistryFetcher struct {
	auth       ports.AuthProvider
	parser     parser.ChecksumParser
	logger     *slog.Logger
	open       TargetFactory
	registry   string
	repository string
	plainHTTP  bool
}

// RegistryOption configures a RegistryFetcher.
type RegistryOption func(*RegistryFetcher)

// WithAuth sets the credential source.
func WithAuth(a ports.AuthProvider) RegistryOption {
	return func(f *RegistryFetcher) { f.auth = a }
}

// WithPlainHTTP talks to the registry without TLS.
func WithPlainHTTP(plain bool) RegistryOption {
	return func(f *RegistryFetcher) { f.plainHTTP = plain }
}

// WithTargetFactory replaces the remote repository client.
func WithTargetFactory(open TargetFactory) RegistryOption {
	return func(f *RegistryFetcher) { f.open = open }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(f *RegistryFetcher) { f.logger = l }
}

// NewRegistryFetcher creates a fetcher for source, an
// "oci://registry/repository" URL.
func NewRegistryFetcher(source string, opts ...RegistryOption) (*RegistryFetcher, error) {
	registry, repository, err := values.ParseManifestSource(source)
	if err != nil {
		return nil, err
	}

	f := &RegistryFetcher{
		registry:   registry,
		repository: repository,
		auth:       NewEnvAuthProvider(),
		parser:     parser.NewJSONChecksumParser(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.open == nil {
		f.open = f.openRemote
	}
	return f, nil
}

// Reference returns where req is published.
func (f *RegistryFetcher) Reference(req entities.ManifestRequest) (values.ManifestReference, error) {
	if req.Kind == values.KindCoreBundled {
		return values.NewManifestReference(f.registry, f.repository, coreRepository, req.Version+"-"+req.Locale), nil
	}
	name, err := values.NewPluginName(req.Name)
	if err != nil {
		return values.ManifestReference{}, err
	}
	return values.NewManifestReference(f.registry, f.repository, name.String(), req.Version), nil
}

// Fetch pulls the checksum artifact for req and parses its layer.
func (f *RegistryFetcher) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	ref, err := f.Reference(req)
	if err != nil {
		return nil, err
	}

	repo, err := f.open(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	store := memory.New()
	desc, err := oras.Copy(ctx, repo, ref.Tag(), store, ref.Tag(), oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", ref.String(), err)
	}

	manifestBytes, err := readBlob(ctx, store, desc)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}

	layer, err := findChecksumLayer(&manifest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.String(), err)
	}
	data, err := readBlob(ctx, store, layer)
	if err != nil {
		return nil, fmt.Errorf("read checksum layer: %w", err)
	}

	kind := parser.PluginDocument
	if req.Kind == values.KindCoreBundled {
		kind = parser.CoreDocument
	}
	m, err := f.parser.Parse(data, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.String(), err)
	}

	f.logger.Debug("manifest pulled", "reference", ref.String(), "digest", desc.Digest.String(), "files", m.Len())
	return m, nil
}

// Store publishes manifest as a checksum artifact tagged for req.
func (f *RegistryFetcher) Store(ctx context.Context, req entities.ManifestRequest, manifest *entities.Manifest) error {
	ref, err := f.Reference(req)
	if err != nil {
		return err
	}

	kind := parser.PluginDocument
	if req.Kind == values.KindCoreBundled {
		kind = parser.CoreDocument
	}
	data, err := parser.EncodeJSON(manifest, kind, req.Name, req.Version)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	staging := memory.New()
	layer := content.NewDescriptorFromBytes(ChecksumLayerMediaType, data)
	layer.Annotations = map[string]string{ocispec.AnnotationTitle: "checksums.json"}
	if err := staging.Push(ctx, layer, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("stage layer: %w", err)
	}

	desc, err := oras.PackManifest(ctx, staging, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: []ocispec.Descriptor{layer},
		ManifestAnnotations: map[string]string{
			ocispec.AnnotationTitle:   req.Name,
			ocispec.AnnotationVersion: req.Version,
		},
	})
	if err != nil {
		return fmt.Errorf("pack manifest: %w", err)
	}
	if err := staging.Tag(ctx, desc, ref.Tag()); err != nil {
		return fmt.Errorf("tag manifest: %w", err)
	}

	repo, err := f.open(ctx, ref)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	if _, err := oras.Copy(ctx, staging, ref.Tag(), repo, ref.Tag(), oras.DefaultCopyOptions); err != nil {
		return fmt.Errorf("push %s: %w", ref.String(), err)
	}

	f.logger.Debug("manifest pushed", "reference", ref.String(), "digest", desc.Digest.String())
	return nil
}

func (f *RegistryFetcher) openRemote(ctx context.Context, ref values.ManifestReference) (oras.Target, error) {
	repo, err := remote.NewRepository(ref.Repository())
	if err != nil {
		return nil, err
	}
	repo.PlainHTTP = f.plainHTTP

	username, password, err := f.auth.GetCredentials(ctx, ref.Registry())
	if err == nil && username != "" {
		repo.Client = &auth.Client{
			Credential: auth.StaticCredential(ref.Registry(), auth.Credential{
				Username: username,
				Password: password,
			}),
		}
	}
	return repo, nil
}

func readBlob(ctx context.Context, store content.Fetcher, desc ocispec.Descriptor) ([]byte, error) {
	rc, err := store.Fetch(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return netutil.ReadAll(rc, maxLayerSize)
}

func findChecksumLayer(manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	for _, layer := range manifest.Layers {
		if layer.MediaType == ChecksumLayerMediaType {
			return layer, nil
		}
	}
	return ocispec.Descriptor{}, fmt.Errorf("no checksum layer found")
}
