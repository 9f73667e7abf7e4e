package values

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PluginName is a validated plugin slug, safe to embed in URLs, OCI
// references and file paths.
type PluginName struct {
	value string
}

// NewPluginName validates a slug. A valid slug:
// - is non-empty after trimming
// - is at most 200 characters long
// - has no path separators or parent directory references
// - contains only letters, digits, '_', '-' and '.'
func NewPluginName(name string) (PluginName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PluginName{}, fmt.Errorf("plugin name cannot be empty")
	}

	if len(name) > 200 {
		return PluginName{}, fmt.Errorf("plugin name too long (max 200 chars)")
	}

	if strings.ContainsAny(name, `/\`) {
		return PluginName{}, fmt.Errorf("plugin name cannot contain path separators")
	}

	if strings.Contains(name, "..") || name == "." {
		return PluginName{}, fmt.Errorf("plugin name cannot contain parent directory references")
	}

	for _, ch := range name {
		if !isValidPluginChar(ch) {
			return PluginName{}, fmt.Errorf("invalid plugin name %q: must contain only alphanumeric characters, underscores, hyphens and dots", name)
		}
	}

	return PluginName{value: name}, nil
}

func isValidPluginChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' ||
		r == '-' ||
		r == '.'
}

// MustNewPluginName creates a PluginName or panics
func MustNewPluginName(name string) PluginName {
	pn, err := NewPluginName(name)
	if err != nil {
		panic(err)
	}
	return pn
}

func (p PluginName) String() string {
	return p.value
}

// IsEmpty returns true if this is the zero value
func (p PluginName) IsEmpty() bool {
	return p.value == ""
}

// MarshalJSON implements json.Marshaler.
func (p PluginName) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *PluginName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid plugin name JSON: %w", err)
	}

	name, err := NewPluginName(s)
	if err != nil {
		return err
	}
	*p = name
	return nil
}
