// Package parser decodes checksum manifest documents.
package parser

import "github.com/reglet-dev/plugin-checksum/plugin/entities"

// DocumentKind tells a parser which document layout to expect.
type DocumentKind int

const (
	// PluginDocument: {"files": {"<path>": {"<algo>": "<hex>" | ["<hex>", ...]}}}
	PluginDocument DocumentKind = iota
	// CoreDocument: {"checksums": {"<path>": "<md5 hex>" | {"<algo>": ...}}}
	CoreDocument
)

func (k DocumentKind) String() string {
	if k == CoreDocument {
		return "core"
	}
	return "plugin"
}

// ChecksumParser parses raw manifest bytes into a Manifest.
type ChecksumParser interface {
	Parse(data []byte, kind DocumentKind) (*entities.Manifest, error)
}
