package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// YAMLChecksumParser implements ChecksumParser for YAML mirrors.
type YAMLChecksumParser struct{}

// NewYAMLChecksumParser creates a new YAMLChecksumParser.
func NewYAMLChecksumParser() ChecksumParser {
	return &YAMLChecksumParser{}
}

// Parse unmarshals and validates a YAML checksum document.
func (p *YAMLChecksumParser) Parse(data []byte, kind DocumentKind) (*entities.Manifest, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return toManifest(doc, kind)
}
