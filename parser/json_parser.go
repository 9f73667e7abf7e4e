package parser

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// JSONChecksumParser implements ChecksumParser for JSON.
type JSONChecksumParser struct{}

// NewJSONChecksumParser creates a new JSONChecksumParser.
func NewJSONChecksumParser() ChecksumParser {
	return &JSONChecksumParser{}
}

// Parse unmarshals and validates a JSON checksum document.
func (p *JSONChecksumParser) Parse(data []byte, kind DocumentKind) (*entities.Manifest, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return toManifest(doc, kind)
}

type encodedDocument struct {
	Files     map[string]map[string][]string `json:"files,omitempty"`
	Checksums map[string]map[string][]string `json:"checksums,omitempty"`
	Plugin    string                         `json:"plugin,omitempty"`
	Version   string                         `json:"version,omitempty"`
}

// EncodeJSON renders a manifest in the layout Parse reads back.
func EncodeJSON(m *entities.Manifest, kind DocumentKind, name, version string) ([]byte, error) {
	files := make(map[string]map[string][]string, m.Len())
	for _, p := range m.Paths() {
		set, _ := m.Lookup(p)
		algos := make(map[string][]string)
		for _, a := range set.Algorithms() {
			hashes := append([]string(nil), set.Accepted(a)...)
			sort.Strings(hashes)
			algos[a.String()] = hashes
		}
		files[p] = algos
	}

	doc := encodedDocument{Version: version}
	if kind == CoreDocument {
		doc.Checksums = files
	} else {
		doc.Plugin = name
		doc.Files = files
	}
	return json.MarshalIndent(doc, "", "  ")
}
