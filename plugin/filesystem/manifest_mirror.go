package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/reglet-dev/plugin-checksum/parser"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/services"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// MirrorFetcher serves manifests from a local directory laid out as
//
//	plugins/<name>/<version>.json   (or .yaml / .yml)
//	core/<version>/<locale>.json    (or .yaml / .yml)
//
// Requests it cannot serve are passed to the next source. It also
// implements ports.ManifestStore, so remote fetches can populate it.
type MirrorFetcher struct {
	services.BaseFetcher
	logger *slog.Logger
	json   parser.ChecksumParser
	yaml   parser.ChecksumParser
	dir    string
}

// NewMirrorFetcher creates a mirror rooted at dir.
func NewMirrorFetcher(dir string, logger *slog.Logger) *MirrorFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorFetcher{
		dir:    dir,
		logger: logger,
		json:   parser.NewJSONChecksumParser(),
		yaml:   parser.NewYAMLChecksumParser(),
	}
}

// Fetch reads the manifest for req from the mirror, else delegates.
func (m *MirrorFetcher) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	base, kind, err := mirrorPath(req)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m.FetchNext(ctx, req)
		}
		return nil, fmt.Errorf("opening manifest mirror: %w", err)
	}
	defer func() { _ = root.Close() }()

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		data, err := root.ReadFile(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading mirrored manifest %s%s: %w", base, ext, err)
		}

		p := m.json
		if ext != ".json" {
			p = m.yaml
		}
		manifest, err := p.Parse(data, kind)
		if err != nil {
			return nil, fmt.Errorf("mirrored manifest %s%s: %w", base, ext, err)
		}
		m.logger.Debug("manifest served from mirror", "request", req.String(), "file", base+ext)
		return manifest, nil
	}

	return m.FetchNext(ctx, req)
}

// Store writes manifest to the mirror as JSON.
func (m *MirrorFetcher) Store(_ context.Context, req entities.ManifestRequest, manifest *entities.Manifest) error {
	base, kind, err := mirrorPath(req)
	if err != nil {
		return err
	}

	data, err := parser.EncodeJSON(manifest, kind, req.Name, req.Version)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return fmt.Errorf("creating manifest mirror: %w", err)
	}
	root, err := os.OpenRoot(m.dir)
	if err != nil {
		return fmt.Errorf("opening manifest mirror: %w", err)
	}
	defer func() { _ = root.Close() }()

	if err := root.MkdirAll(path.Dir(base), 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", path.Dir(base), err)
	}
	if err := root.WriteFile(base+".json", data, 0o644); err != nil {
		return fmt.Errorf("writing %s.json: %w", base, err)
	}
	return nil
}

// mirrorPath returns the extension-less mirror path for req.
func mirrorPath(req entities.ManifestRequest) (string, parser.DocumentKind, error) {
	if err := checkSegment("version", req.Version); err != nil {
		return "", 0, err
	}
	if req.Kind == values.KindCoreBundled {
		if err := checkSegment("locale", req.Locale); err != nil {
			return "", 0, err
		}
		return path.Join("core", req.Version, req.Locale), parser.CoreDocument, nil
	}

	name, err := values.NewPluginName(req.Name)
	if err != nil {
		return "", 0, err
	}
	return path.Join("plugins", name.String(), req.Version), parser.PluginDocument, nil
}

func checkSegment(label, s string) error {
	if s == "" || s == "." || strings.Contains(s, "..") || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid %s %q for manifest mirror", label, s)
	}
	return nil
}
