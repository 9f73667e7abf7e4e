package values

import (
	"fmt"
	"strings"
)

// ManifestReference locates a checksum manifest published as an OCI artifact.
// Format: registry.io/repository/path/name:tag
type ManifestReference struct {
	registry   string // ghcr.io
	repository string // reglet-dev/checksums
	name       string // akismet
	tag        string // 5.3.1
}

// NewManifestReference creates a reference from components. The tag is
// sanitized into the OCI tag alphabet.
func NewManifestReference(registry, repository, name, tag string) ManifestReference {
	return ManifestReference{
		registry:   registry,
		repository: strings.Trim(repository, "/"),
		name:       name,
		tag:        sanitizeTag(tag),
	}
}

// ParseManifestSource splits an "oci://registry/repository" source into its
// registry and repository parts.
func ParseManifestSource(source string) (registry, repository string, err error) {
	trimmed := strings.TrimPrefix(source, "oci://")
	parts := strings.SplitN(strings.Trim(trimmed, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid OCI source %q: expected oci://registry/repository", source)
	}
	return parts[0], parts[1], nil
}

// String returns the canonical OCI reference string.
func (r ManifestReference) String() string {
	return fmt.Sprintf("%s/%s/%s:%s", r.registry, r.repository, r.name, r.tag)
}

// Repository returns the full repository path including the artifact name.
func (r ManifestReference) Repository() string {
	return fmt.Sprintf("%s/%s/%s", r.registry, r.repository, r.name)
}

// Registry returns the registry hostname.
func (r ManifestReference) Registry() string {
	return r.registry
}

// Name returns the artifact name.
func (r ManifestReference) Name() string {
	return r.name
}

// Tag returns the sanitized tag.
func (r ManifestReference) Tag() string {
	return r.tag
}

// sanitizeTag maps characters outside [A-Za-z0-9_.-] to '_' and caps the
// length at 128 as required by the distribution spec.
func sanitizeTag(tag string) string {
	var b strings.Builder
	for i, ch := range tag {
		valid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '_' ||
			(i > 0 && (ch == '.' || ch == '-'))
		if valid {
			b.WriteRune(ch)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > 128 {
		out = out[:128]
	}
	return out
}
