package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// DefaultCoreBundled maps core-bundled plugin names to their path inside
// the core manifest.
var DefaultCoreBundled = map[string]string{
	"hello": "wp-content/plugins/hello.php",
}

// FSInventory implements ports.InventorySource by scanning a site on disk.
type FSInventory struct {
	logger          *slog.Logger
	coreBundled     map[string]string
	root            string
	pluginDir       string
	mustUseDir      string
	platformVersion string
}

// InventoryOption configures an FSInventory.
type InventoryOption func(*FSInventory)

// WithPluginDir overrides <root>/wp-content/plugins.
func WithPluginDir(dir string) InventoryOption {
	return func(i *FSInventory) {
		if dir != "" {
			i.pluginDir = dir
		}
	}
}

// WithMustUseDir overrides <root>/wp-content/mu-plugins.
func WithMustUseDir(dir string) InventoryOption {
	return func(i *FSInventory) {
		if dir != "" {
			i.mustUseDir = dir
		}
	}
}

// WithCoreBundled replaces the core-bundled name to core path mapping.
func WithCoreBundled(m map[string]string) InventoryOption {
	return func(i *FSInventory) { i.coreBundled = m }
}

// WithInventoryPlatformVersion skips reading wp-includes/version.php.
func WithInventoryPlatformVersion(v string) InventoryOption {
	return func(i *FSInventory) { i.platformVersion = v }
}

// WithInventoryLogger sets the logger.
func WithInventoryLogger(l *slog.Logger) InventoryOption {
	return func(i *FSInventory) { i.logger = l }
}

// NewFSInventory creates an inventory source for the site at root.
func NewFSInventory(root string, opts ...InventoryOption) *FSInventory {
	i := &FSInventory{
		root:        root,
		pluginDir:   filepath.Join(root, "wp-content", "plugins"),
		mustUseDir:  filepath.Join(root, "wp-content", "mu-plugins"),
		coreBundled: DefaultCoreBundled,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Snapshot scans the plugin and must-use directories. A missing directory
// contributes nothing.
func (i *FSInventory) Snapshot(ctx context.Context) (*entities.Inventory, error) {
	inv := entities.NewInventory(i.pluginDir, i.mustUseDir)

	plugins, orphans, err := i.scanPlugins(ctx, i.pluginDir)
	if err != nil {
		return nil, err
	}
	for _, p := range plugins {
		// A copy installed from the plugin directory keeps its own layout
		// and is verified as a standard plugin.
		if corePath, ok := i.coreBundled[p.Name]; ok && strings.HasSuffix(corePath, "/"+p.MainFile) {
			p.Kind = values.KindCoreBundled
			p.CorePath = corePath
		}
		inv.Plugins = append(inv.Plugins, p)
	}
	inv.OrphanDirs = orphans

	mustUse, err := i.scanMustUse(ctx)
	if err != nil {
		return nil, err
	}
	inv.MustUse = mustUse

	inv.PlatformVersion = i.platformVersion
	if inv.PlatformVersion == "" && i.root != "" {
		v, err := readPlatformVersion(filepath.Join(i.root, "wp-includes", "version.php"))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading platform version: %w", err)
		}
		inv.PlatformVersion = v
	}

	if err := inv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inventory: %w", err)
	}

	i.logger.Debug("inventory scanned",
		"plugins", len(inv.Plugins),
		"must_use", len(inv.MustUse),
		"orphans", len(inv.OrphanDirs),
		"platform_version", inv.PlatformVersion)

	return inv, nil
}

// scanPlugins finds header-bearing PHP files at the top of dir and one
// level down. Subdirectories without one are returned as orphans.
func (i *FSInventory) scanPlugins(ctx context.Context, dir string) ([]entities.InstalledArtifact, []string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		plugins []entities.InstalledArtifact
		orphans []string
		seen    = make(map[string]struct{})
	)
	add := func(mainFile, version string) {
		name := entities.SlugFromMainFile(mainFile)
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		plugins = append(plugins, entities.InstalledArtifact{
			Name:     name,
			MainFile: mainFile,
			Version:  version,
			Kind:     values.KindStandard,
		})
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		switch {
		case e.IsDir():
			mainFile, version, found, err := findMainFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, nil, err
			}
			if !found {
				orphans = append(orphans, e.Name())
				continue
			}
			add(e.Name()+"/"+mainFile, version)

		case isPHP(e):
			h, ok, err := readPluginHeader(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, nil, fmt.Errorf("reading %s: %w", e.Name(), err)
			}
			if ok {
				add(e.Name(), h.Version)
			}
		}
	}
	return plugins, orphans, nil
}

// scanMustUse lists every PHP file at the top of the must-use directory,
// with or without a header, plus plugins moved into subdirectories.
func (i *FSInventory) scanMustUse(ctx context.Context) ([]entities.InstalledArtifact, error) {
	entries, err := readDir(i.mustUseDir)
	if err != nil {
		return nil, err
	}

	var (
		out  []entities.InstalledArtifact
		seen = make(map[string]struct{})
	)
	add := func(mainFile, version string) {
		name := entities.SlugFromMainFile(mainFile)
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, entities.InstalledArtifact{
			Name:     name,
			MainFile: mainFile,
			Version:  version,
			Kind:     values.KindMustUse,
		})
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isPHP(e) {
			h, _, err := readPluginHeader(filepath.Join(i.mustUseDir, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
			}
			add(e.Name(), h.Version)
		}
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		mainFile, version, found, err := findMainFile(filepath.Join(i.mustUseDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if found {
			add(e.Name()+"/"+mainFile, version)
		}
	}
	return out, nil
}

// findMainFile returns the first PHP file in dir, by name, that carries a
// plugin header.
func findMainFile(dir string) (string, string, bool, error) {
	entries, err := readDir(dir)
	if err != nil {
		return "", "", false, err
	}
	for _, e := range entries {
		if !isPHP(e) {
			continue
		}
		h, ok, err := readPluginHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", "", false, fmt.Errorf("reading %s: %w", filepath.Join(dir, e.Name()), err)
		}
		if ok {
			return e.Name(), h.Version, true, nil
		}
	}
	return "", "", false, nil
}

// readDir lists dir without hidden entries. A missing dir is empty.
// Symlinks are reported as what they point to; dangling links are dropped.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	visible := entries[:0]
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			e = fs.FileInfoToDirEntry(info)
		}
		visible = append(visible, e)
	}
	return visible, nil
}

func isPHP(e os.DirEntry) bool {
	return e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".php")
}
