package values

import (
	"crypto/md5" //nolint:gosec // md5 is still published by upstream manifests
	"crypto/sha1" //nolint:gosec // sha1 is still published by upstream manifests
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"
)

// Algorithm names a checksum algorithm as it appears in a manifest.
type Algorithm string

const (
	AlgorithmSHA512 Algorithm = "sha512"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmMD5    Algorithm = "md5"
)

// preferredAlgorithms lists supported algorithms strongest first.
var preferredAlgorithms = []Algorithm{
	AlgorithmSHA512,
	AlgorithmSHA256,
	AlgorithmSHA1,
	AlgorithmMD5,
}

// ParseAlgorithm normalizes an algorithm name. Unknown names are returned
// as-is with ok=false so callers can keep them for diagnostics.
func ParseAlgorithm(s string) (Algorithm, bool) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	return a, a.Supported()
}

// Supported reports whether a digest can be computed for this algorithm.
func (a Algorithm) Supported() bool {
	for _, p := range preferredAlgorithms {
		if a == p {
			return true
		}
	}
	return false
}

func (a Algorithm) String() string {
	return string(a)
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case AlgorithmSHA512:
		return sha512.New(), nil
	case AlgorithmSHA256:
		return sha256.New(), nil
	case AlgorithmSHA1:
		return sha1.New(), nil //nolint:gosec
	case AlgorithmMD5:
		return md5.New(), nil //nolint:gosec
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", a)
	}
}

// ChecksumSet maps an algorithm to the hex digests accepted for one file.
// A file matches when its digest equals any member of the set.
type ChecksumSet struct {
	hashes map[Algorithm][]string
}

// NewChecksumSet builds a set from algorithm to digests. Digests are
// lowercased and blank entries dropped.
func NewChecksumSet(in map[string][]string) ChecksumSet {
	set := ChecksumSet{hashes: make(map[Algorithm][]string, len(in))}
	for algo, values := range in {
		a, _ := ParseAlgorithm(algo)
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			set.hashes[a] = append(set.hashes[a], v)
		}
	}
	return set
}

// Preferred returns the strongest supported algorithm present in the set
// together with its accepted digests. The order is a superset of the
// upstream sha256-then-md5 policy: sha512 and sha1 entries are hashed too.
func (s ChecksumSet) Preferred() (Algorithm, []string, bool) {
	for _, a := range preferredAlgorithms {
		if values, ok := s.hashes[a]; ok && len(values) > 0 {
			return a, values, true
		}
	}
	return "", nil, false
}

// Accepted returns the digests accepted for the algorithm.
func (s ChecksumSet) Accepted(a Algorithm) []string {
	return s.hashes[a]
}

// Algorithms returns the algorithms present in the set, sorted by name.
func (s ChecksumSet) Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(s.hashes))
	for a := range s.hashes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsEmpty reports whether the set carries no digests at all.
func (s ChecksumSet) IsEmpty() bool {
	return len(s.hashes) == 0
}

// Contains reports whether hexValue is accepted for the algorithm.
func (s ChecksumSet) Contains(a Algorithm, hexValue string) bool {
	for _, v := range s.hashes[a] {
		if strings.EqualFold(v, hexValue) {
			return true
		}
	}
	return false
}

// ComputeDigest streams r through the algorithm and returns the hex digest.
func ComputeDigest(a Algorithm, r io.Reader) (string, error) {
	h, err := a.newHash()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeFileDigest hashes the file at path with the algorithm.
func ComputeFileDigest(a Algorithm, path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the artifact listing
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	return ComputeDigest(a, f)
}
