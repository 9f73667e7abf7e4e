package entities

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// InstalledArtifact is one inventory entry as discovered on disk.
type InstalledArtifact struct {
	Name     string
	MainFile string
	Version  string
	CorePath string
	Kind     values.ArtifactKind
}

// Inventory is a snapshot of everything installed, taken once per run.
//
// Invariants:
// - Main files are relative, slash-separated and free of ".." segments
// - Names are unique within Plugins and within MustUse
type Inventory struct {
	Generated       time.Time
	PluginRoot      string
	MustUseRoot     string
	PlatformVersion string
	Plugins         []InstalledArtifact
	MustUse         []InstalledArtifact
	// OrphanDirs are plugin directories without a recognizable main file.
	OrphanDirs []string
}

// NewInventory creates an empty snapshot for the given roots.
func NewInventory(pluginRoot, mustUseRoot string) *Inventory {
	return &Inventory{
		Generated:   time.Now().UTC(),
		PluginRoot:  pluginRoot,
		MustUseRoot: mustUseRoot,
	}
}

// FindPlugin resolves a requested slug against the primary plugins. A slug
// matches an entry whose main file is "<slug>.php", "<slug>", or lives in
// directory "<slug>". A bare plugin directory yields a synthetic entry with
// main file "<slug>/<slug>.php" and no version.
func (inv *Inventory) FindPlugin(name string) (InstalledArtifact, bool) {
	for _, p := range inv.Plugins {
		if matchesSlug(p.MainFile, name) {
			return p, true
		}
	}
	for _, dir := range inv.OrphanDirs {
		if dir == name {
			return InstalledArtifact{
				Name:     name,
				MainFile: name + "/" + name + ".php",
				Kind:     values.KindStandard,
			}, true
		}
	}
	return InstalledArtifact{}, false
}

func matchesSlug(mainFile, name string) bool {
	if mainFile == name+".php" || mainFile == name {
		return true
	}
	return path.Dir(mainFile) == name
}

// LookupVersion returns the installed version of the artifact whose main
// file is mainFile.
func (inv *Inventory) LookupVersion(kind values.ArtifactKind, mainFile string) (string, bool) {
	list := inv.Plugins
	if kind == values.KindMustUse {
		list = inv.MustUse
	}
	for _, p := range list {
		if p.MainFile == mainFile && p.Version != "" {
			return p.Version, true
		}
	}
	return "", false
}

// RootFor returns the directory artifacts of the given kind live in.
func (inv *Inventory) RootFor(kind values.ArtifactKind) string {
	switch kind {
	case values.KindStandard, values.KindCoreBundled:
		return inv.PluginRoot
	case values.KindMustUse:
		return inv.MustUseRoot
	default:
		return inv.PluginRoot
	}
}

// PluginNames returns the names of all primary plugins in inventory order.
func (inv *Inventory) PluginNames() []string {
	names := make([]string, 0, len(inv.Plugins))
	for _, p := range inv.Plugins {
		names = append(names, p.Name)
	}
	return names
}

// Validate checks inventory invariants.
func (inv *Inventory) Validate() error {
	for _, group := range []struct {
		label string
		items []InstalledArtifact
	}{
		{"plugin", inv.Plugins},
		{"must-use plugin", inv.MustUse},
	} {
		seen := make(map[string]struct{}, len(group.items))
		for _, item := range group.items {
			if item.Name == "" {
				return fmt.Errorf("%s with main file %q: name is required", group.label, item.MainFile)
			}
			if err := validateRelative(item.MainFile); err != nil {
				return fmt.Errorf("%s %q: %w", group.label, item.Name, err)
			}
			if _, dup := seen[item.Name]; dup {
				return fmt.Errorf("%s %q: listed more than once", group.label, item.Name)
			}
			seen[item.Name] = struct{}{}
			if item.Kind == values.KindCoreBundled && item.CorePath == "" {
				return fmt.Errorf("%s %q: core-bundled entries need a core path", group.label, item.Name)
			}
		}
	}
	return nil
}

func validateRelative(p string) error {
	if p == "" {
		return fmt.Errorf("main file is required")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return fmt.Errorf("main file %q must be a relative slash path", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Errorf("main file %q escapes its root", p)
		}
	}
	return nil
}
