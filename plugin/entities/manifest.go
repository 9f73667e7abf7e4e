package entities

import (
	"fmt"
	"sort"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// Manifest maps relative file paths to the checksums accepted for them.
// Paths are unique and case-sensitive. Never mutated after construction.
type Manifest struct {
	entries map[string]values.ChecksumSet
}

// NewManifest copies entries into a new manifest.
func NewManifest(entries map[string]values.ChecksumSet) *Manifest {
	m := &Manifest{entries: make(map[string]values.ChecksumSet, len(entries))}
	for p, set := range entries {
		m.entries[p] = set
	}
	return m
}

// Lookup returns the checksum set for a relative path.
func (m *Manifest) Lookup(path string) (values.ChecksumSet, bool) {
	set, ok := m.entries[path]
	return set, ok
}

// Paths returns all manifest paths in lexicographic order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// ManifestRequest identifies the manifest to fetch for one artifact.
type ManifestRequest struct {
	Name    string
	Version string
	Locale  string
	Kind    values.ArtifactKind
}

// String renders the request for logs and errors.
func (r ManifestRequest) String() string {
	if r.Kind == values.KindCoreBundled {
		return fmt.Sprintf("core %s (%s)", r.Version, r.Locale)
	}
	return fmt.Sprintf("%s %s", r.Name, r.Version)
}

// CacheKey identifies the request for memoization. Standard and must-use
// plugins share upstream manifests, so the kind only matters for core.
func (r ManifestRequest) CacheKey() string {
	if r.Kind == values.KindCoreBundled {
		return "core\x00" + r.Version + "\x00" + r.Locale
	}
	return "plugin\x00" + r.Name + "\x00" + r.Version
}
