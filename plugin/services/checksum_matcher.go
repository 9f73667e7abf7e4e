package services

import (
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// MatchResult is the outcome of comparing a file against a checksum set.
type MatchResult int

const (
	MatchOK MatchResult = iota
	MatchMismatch
	MatchNoAlgorithm
)

func (r MatchResult) String() string {
	switch r {
	case MatchOK:
		return "ok"
	case MatchMismatch:
		return "mismatch"
	case MatchNoAlgorithm:
		return "no-algorithm"
	default:
		return "unknown"
	}
}

// ChecksumMatcher decides whether a local file matches its manifest entry.
// Only the strongest algorithm present is computed; a mismatch under it is
// final even if a weaker algorithm would match.
type ChecksumMatcher struct {
	digest func(values.Algorithm, string) (string, error)
}

// NewChecksumMatcher creates a matcher that hashes files from disk.
func NewChecksumMatcher() *ChecksumMatcher {
	return &ChecksumMatcher{digest: values.ComputeFileDigest}
}

// Match hashes the file at path with the preferred algorithm of set.
// Read failures are returned as *entities.LocalReadError.
func (m *ChecksumMatcher) Match(path string, set values.ChecksumSet) (MatchResult, error) {
	algo, _, ok := set.Preferred()
	if !ok {
		return MatchNoAlgorithm, nil
	}

	computed, err := m.digest(algo, path)
	if err != nil {
		return MatchMismatch, &entities.LocalReadError{Path: path, Err: err}
	}

	if set.Contains(algo, computed) {
		return MatchOK, nil
	}
	return MatchMismatch, nil
}
