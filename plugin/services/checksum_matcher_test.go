package services

import (
	"crypto/md5" //nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestChecksumMatcher_Match(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "a.php", "<?php echo 1;")
	content := "<?php echo 1;"

	tests := []struct {
		name string
		set  map[string][]string
		want MatchResult
	}{
		{"sha256 match", map[string][]string{"sha256": {sha256Hex(content)}}, MatchOK},
		{"sha256 one of many", map[string][]string{"sha256": {"00", sha256Hex(content)}}, MatchOK},
		{"md5 only match", map[string][]string{"md5": {md5Hex(content)}}, MatchOK},
		{"md5 only mismatch", map[string][]string{"md5": {md5Hex("other")}}, MatchMismatch},
		{
			"sha256 mismatch is final even when md5 matches",
			map[string][]string{"sha256": {sha256Hex("other")}, "md5": {md5Hex(content)}},
			MatchMismatch,
		},
		{"no supported algorithm", map[string][]string{"crc32": {"abcd"}}, MatchNoAlgorithm},
		{"empty set", nil, MatchNoAlgorithm},
	}

	m := NewChecksumMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(file, values.NewChecksumSet(tt.set))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksumMatcher_UnreadableFile(t *testing.T) {
	t.Parallel()

	m := NewChecksumMatcher()
	set := values.NewChecksumSet(map[string][]string{"sha256": {sha256Hex("x")}})

	_, err := m.Match(filepath.Join(t.TempDir(), "missing.php"), set)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrLocalRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestChecksumMatcher_NoAlgorithmSkipsRead(t *testing.T) {
	t.Parallel()

	m := NewChecksumMatcher()
	got, err := m.Match(filepath.Join(t.TempDir(), "missing.php"), values.NewChecksumSet(map[string][]string{"crc32": {"1"}}))
	require.NoError(t, err)
	assert.Equal(t, MatchNoAlgorithm, got)
}

func TestIsSoftChange(t *testing.T) {
	tests := map[string]bool{
		"readme.txt":     true,
		"README.TXT":     true,
		"ReadMe.md":      true,
		"readme.html":    false,
		"docs/readme.md": false,
		"plugin.php":     false,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, IsSoftChange(input))
		})
	}
}
