package parser

import (
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

const hashListSchema = `{
	"oneOf": [
		{"type": "string"},
		{"type": "array", "items": {"type": "string"}, "minItems": 1}
	]
}`

var (
	pluginSchema = jsonschema.MustCompileString("plugin-checksums.json", `{
		"type": "object",
		"required": ["files"],
		"properties": {
			"plugin": {"type": "string"},
			"version": {"type": "string"},
			"files": {
				"type": "object",
				"additionalProperties": {
					"type": "object",
					"additionalProperties": `+hashListSchema+`
				}
			}
		}
	}`)

	coreSchema = jsonschema.MustCompileString("core-checksums.json", `{
		"type": "object",
		"required": ["checksums"],
		"properties": {
			"checksums": {
				"type": "object",
				"additionalProperties": {
					"oneOf": [
						{"type": "string"},
						{"type": "object", "additionalProperties": `+hashListSchema+`}
					]
				}
			}
		}
	}`)
)

// ErrInvalidDocument is returned for bodies that do not match the layout.
var ErrInvalidDocument = errors.New("invalid checksum document")

// toManifest validates a generically decoded document and converts it.
func toManifest(doc interface{}, kind DocumentKind) (*entities.Manifest, error) {
	schema, field := pluginSchema, "files"
	if kind == CoreDocument {
		schema, field = coreSchema, "checksums"
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrInvalidDocument, kind, err)
	}

	root, _ := doc.(map[string]interface{})
	files, _ := root[field].(map[string]interface{})

	entries := make(map[string]values.ChecksumSet, len(files))
	for path, raw := range files {
		switch v := raw.(type) {
		case string:
			entries[path] = values.NewChecksumSet(map[string][]string{string(values.AlgorithmMD5): {v}})
		case map[string]interface{}:
			entries[path] = values.NewChecksumSet(hashLists(v))
		}
	}
	return entities.NewManifest(entries), nil
}

func hashLists(in map[string]interface{}) map[string][]string {
	out := make(map[string][]string, len(in))
	for algo, raw := range in {
		switch v := raw.(type) {
		case string:
			out[algo] = []string{v}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out[algo] = append(out[algo], s)
				}
			}
		}
	}
	return out
}
