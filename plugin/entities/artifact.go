package entities

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// Artifact is a resolved, installed unit of verification: a plugin with a
// known version and a location on disk. Immutable after creation.
type Artifact struct {
	name     string
	mainFile string
	root     string
	version  string
	corePath string
	kind     values.ArtifactKind
}

// NewArtifact creates an artifact from an inventory entry rooted at root.
// The version is the one resolved for this run, which may differ from the
// installed version when an override is in effect.
func NewArtifact(installed InstalledArtifact, root, version string) *Artifact {
	return &Artifact{
		name:     installed.Name,
		mainFile: installed.MainFile,
		root:     root,
		version:  version,
		corePath: installed.CorePath,
		kind:     installed.Kind,
	}
}

// Name returns the artifact slug.
func (a *Artifact) Name() string {
	return a.name
}

// MainFile returns the main file path relative to the artifact root.
func (a *Artifact) MainFile() string {
	return a.mainFile
}

// Root returns the absolute directory the main file is relative to.
func (a *Artifact) Root() string {
	return a.root
}

// Version returns the version being verified.
func (a *Artifact) Version() string {
	return a.version
}

// Kind returns the artifact kind.
func (a *Artifact) Kind() values.ArtifactKind {
	return a.kind
}

// CorePath returns the path of this artifact inside the core manifest.
// Only set for core-bundled artifacts.
func (a *Artifact) CorePath() string {
	return a.corePath
}

// SingleFile reports whether the artifact is one loose file in its root.
func (a *Artifact) SingleFile() bool {
	return IsSingleFile(a.mainFile)
}

// Directory returns the absolute directory holding the artifact's files.
func (a *Artifact) Directory() string {
	if a.SingleFile() {
		return a.root
	}
	return filepath.Join(a.root, filepath.FromSlash(path.Dir(a.mainFile)))
}

// IsSingleFile reports whether mainFile sits directly in its root.
func IsSingleFile(mainFile string) bool {
	return !strings.Contains(mainFile, "/")
}

// SlugFromMainFile derives an artifact name from its main file: the
// directory name for nested files, else the basename without ".php".
func SlugFromMainFile(mainFile string) string {
	mainFile = filepath.ToSlash(mainFile)
	if i := strings.Index(mainFile, "/"); i >= 0 {
		return mainFile[:i]
	}
	return strings.TrimSuffix(mainFile, ".php")
}
