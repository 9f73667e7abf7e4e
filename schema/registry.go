// Package schema publishes JSON schemas for the documents the tool reads
// and writes.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// Registry maps document kinds to generated JSON schemas.
type Registry struct {
	schemas   map[string]string
	reflector *jsonschema.Reflector
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		schemas:   make(map[string]string),
		reflector: new(jsonschema.Reflector),
	}
	r.reflector.ExpandedStruct = true
	// yaml tags are present on every document type, json tags are not.
	r.reflector.FieldNameTag = "yaml"
	r.reflector.Mapper = mapType
	return r
}

// Register adds a schema for kind. model is a Go struct (or pointer to
// one) to reflect, or a raw JSON schema string.
func (r *Registry) Register(kind string, model interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[kind]; exists {
		return fmt.Errorf("schema kind already registered: %s", kind)
	}

	if s, ok := model.(string); ok {
		if !json.Valid([]byte(s)) {
			return fmt.Errorf("schema for %s is not valid JSON", kind)
		}
		r.schemas[kind] = s
		return nil
	}

	t := reflect.TypeOf(model)
	if t == nil || (t.Kind() != reflect.Struct && !(t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct)) {
		return fmt.Errorf("schema for %s: unsupported model %T", kind, model)
	}

	b, err := json.MarshalIndent(r.reflector.Reflect(model), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	r.schemas[kind] = string(b)
	return nil
}

// Get retrieves the JSON schema for a kind.
func (r *Registry) Get(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[kind]
	return s, ok
}

// List returns all registered kinds, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var artifactKindType = reflect.TypeOf(values.ArtifactKind(0))

// mapType renders text-marshalled enums as strings.
func mapType(t reflect.Type) *jsonschema.Schema {
	if t == artifactKindType {
		return &jsonschema.Schema{
			Type: "string",
			Enum: []interface{}{
				values.KindStandard.String(),
				values.KindMustUse.String(),
				values.KindCoreBundled.String(),
			},
		}
	}
	return nil
}
