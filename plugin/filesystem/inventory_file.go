package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// InventoryFile represents the YAML structure of an inventory snapshot.
type InventoryFile struct {
	Generated       time.Time       `yaml:"generated"`
	PluginRoot      string          `yaml:"plugin_root"`
	MustUseRoot     string          `yaml:"mu_plugin_root,omitempty"`
	PlatformVersion string          `yaml:"platform_version,omitempty"`
	Plugins         []InventoryItem `yaml:"plugins"`
	MustUse         []InventoryItem `yaml:"mu_plugins,omitempty"`
	OrphanDirs      []string        `yaml:"orphan_dirs,omitempty"`
	Version         int             `yaml:"inventory_version"`
}

// InventoryItem is one installed artifact in YAML.
type InventoryItem struct {
	Name     string              `yaml:"name"`
	MainFile string              `yaml:"file"`
	Version  string              `yaml:"version,omitempty"`
	CorePath string              `yaml:"core_path,omitempty"`
	Kind     values.ArtifactKind `yaml:"kind,omitempty"`
}

const inventoryFileVersion = 1

// ToEntity converts the snapshot to a domain inventory.
func (f *InventoryFile) ToEntity() *entities.Inventory {
	inv := &entities.Inventory{
		Generated:       f.Generated,
		PluginRoot:      f.PluginRoot,
		MustUseRoot:     f.MustUseRoot,
		PlatformVersion: f.PlatformVersion,
		OrphanDirs:      append([]string(nil), f.OrphanDirs...),
	}
	for _, item := range f.Plugins {
		inv.Plugins = append(inv.Plugins, item.toEntity())
	}
	for _, item := range f.MustUse {
		item.Kind = values.KindMustUse
		inv.MustUse = append(inv.MustUse, item.toEntity())
	}
	return inv
}

func (i InventoryItem) toEntity() entities.InstalledArtifact {
	return entities.InstalledArtifact{
		Name:     i.Name,
		MainFile: i.MainFile,
		Version:  i.Version,
		CorePath: i.CorePath,
		Kind:     i.Kind,
	}
}

// InventoryFromEntity converts a domain inventory to YAML representation.
func InventoryFromEntity(inv *entities.Inventory) *InventoryFile {
	if inv == nil {
		return nil
	}
	f := &InventoryFile{
		Version:         inventoryFileVersion,
		Generated:       inv.Generated,
		PluginRoot:      inv.PluginRoot,
		MustUseRoot:     inv.MustUseRoot,
		PlatformVersion: inv.PlatformVersion,
		OrphanDirs:      inv.OrphanDirs,
	}
	for _, a := range inv.Plugins {
		f.Plugins = append(f.Plugins, itemFromEntity(a))
	}
	for _, a := range inv.MustUse {
		f.MustUse = append(f.MustUse, itemFromEntity(a))
	}
	return f
}

func itemFromEntity(a entities.InstalledArtifact) InventoryItem {
	return InventoryItem{
		Name:     a.Name,
		MainFile: a.MainFile,
		Version:  a.Version,
		CorePath: a.CorePath,
		Kind:     a.Kind,
	}
}

// FileInventoryRepository implements ports.InventoryRepository with YAML
// files on the local filesystem.
type FileInventoryRepository struct{}

// NewFileInventoryRepository creates a new FileInventoryRepository.
func NewFileInventoryRepository() *FileInventoryRepository {
	return &FileInventoryRepository{}
}

// Load reads an inventory snapshot from path.
func (r *FileInventoryRepository) Load(ctx context.Context, path string) (*entities.Inventory, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("opening directory of %q: %w", path, err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("opening inventory %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var out InventoryFile
	if err := yaml.NewDecoder(file).DecodeContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding inventory YAML: %w", err)
	}
	if out.Version != inventoryFileVersion {
		return nil, fmt.Errorf("unsupported inventory_version %d", out.Version)
	}

	inv := out.ToEntity()
	if err := inv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inventory: %w", err)
	}
	return inv, nil
}

// Save writes inv to path, creating the parent directory if needed.
func (r *FileInventoryRepository) Save(ctx context.Context, inv *entities.Inventory, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening directory for write %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.OpenFile(filepath.Base(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating inventory %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	defer func() { _ = encoder.Close() }()

	if err := encoder.EncodeContext(ctx, InventoryFromEntity(inv)); err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	return nil
}

// FileInventorySource serves a saved snapshot as an inventory source.
type FileInventorySource struct {
	repo *FileInventoryRepository
	path string
}

// NewFileInventorySource creates a source that loads path on Snapshot.
func NewFileInventorySource(path string) *FileInventorySource {
	return &FileInventorySource{repo: NewFileInventoryRepository(), path: path}
}

// Snapshot loads the saved inventory.
func (s *FileInventorySource) Snapshot(ctx context.Context) (*entities.Inventory, error) {
	return s.repo.Load(ctx, s.path)
}
