package entities

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrNoArtifactsSpecified is returned when a batch names no artifacts and
	// does not ask for all of them.
	ErrNoArtifactsSpecified = errors.New("You need to specify either one or more plugin slugs to check or use the --all flag to check all plugins.")

	// ErrVersionUnresolvable marks an artifact skipped because no version is known.
	ErrVersionUnresolvable = errors.New("version unresolvable")

	// ErrManifestUnavailable marks an artifact skipped because no manifest
	// could be obtained for its version.
	ErrManifestUnavailable = errors.New("manifest unavailable")

	// ErrUnverifiableLoader marks a loose must-use file with no upstream manifest.
	ErrUnverifiableLoader = errors.New("unverifiable loader artifact")

	// ErrManifestNotFound is returned by a fetcher chain that has no manifest
	// for the request.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrExcluded marks an artifact skipped on request.
	ErrExcluded = errors.New("excluded")

	// ErrLocalRead is returned when a local file cannot be read for hashing.
	ErrLocalRead = errors.New("local file unreadable")
)

// SkipError describes why an artifact was not verified. Its message is the
// warning shown to the operator.
type SkipError struct {
	Reason   error
	Cause    error
	Artifact string
	File     string
	Version  string
	Locale   string
	Kind     values.ArtifactKind
}

func (e *SkipError) Error() string {
	noun := "plugin"
	if e.Kind == values.KindMustUse {
		noun = "must-use plugin"
	}

	switch {
	case errors.Is(e.Reason, ErrUnverifiableLoader):
		return fmt.Sprintf("Must-use plugin '%s' appears to be a custom file or loader plugin and cannot be verified.", e.File)
	case errors.Is(e.Reason, ErrVersionUnresolvable):
		return fmt.Sprintf("Could not retrieve the version for %s %s, skipping.", noun, e.Artifact)
	case errors.Is(e.Reason, ErrManifestUnavailable) && e.Kind == values.KindCoreBundled:
		return fmt.Sprintf("Could not retrieve the core checksums for version %s (%s) to verify plugin %s, skipping.", e.Version, e.Locale, e.Artifact)
	case errors.Is(e.Reason, ErrManifestUnavailable):
		return fmt.Sprintf("Could not retrieve the checksums for version %s of %s %s, skipping.", e.Version, noun, e.Artifact)
	default:
		return fmt.Sprintf("Skipping %s %s: %v", noun, e.Artifact, e.Reason)
	}
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrManifestUnavailable)
func (e *SkipError) Is(target error) bool {
	return target == e.Reason
}

// Unwrap exposes the underlying failure, if any.
func (e *SkipError) Unwrap() error {
	return e.Cause
}

// ManifestNotFoundError indicates no manifest source could serve a request.
type ManifestNotFoundError struct {
	Request ManifestRequest
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found: %s", e.Request.String())
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrManifestNotFound)
func (e *ManifestNotFoundError) Is(target error) bool {
	return target == ErrManifestNotFound
}

// LocalReadError indicates a local file could not be hashed.
type LocalReadError struct {
	Err  error
	Path string
}

func (e *LocalReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, entities.ErrLocalRead)
func (e *LocalReadError) Is(target error) bool {
	return target == ErrLocalRead
}

func (e *LocalReadError) Unwrap() error {
	return e.Err
}
