package values

import "fmt"

// ArtifactKind classifies an installed artifact. The set is closed; code
// that branches on it switches exhaustively.
type ArtifactKind int

const (
	// KindStandard is a regular plugin from the plugin directory.
	KindStandard ArtifactKind = iota
	// KindMustUse is a must-use plugin, loaded unconditionally.
	KindMustUse
	// KindCoreBundled ships with the platform itself and is verified
	// against the core manifest.
	KindCoreBundled
)

func (k ArtifactKind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindMustUse:
		return "must-use"
	case KindCoreBundled:
		return "core-bundled"
	default:
		return fmt.Sprintf("ArtifactKind(%d)", int(k))
	}
}

// ParseArtifactKind is the inverse of String.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch s {
	case "standard", "":
		return KindStandard, nil
	case "must-use":
		return KindMustUse, nil
	case "core-bundled":
		return KindCoreBundled, nil
	default:
		return 0, fmt.Errorf("unknown artifact kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ArtifactKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ArtifactKind) UnmarshalText(text []byte) error {
	parsed, err := ParseArtifactKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
