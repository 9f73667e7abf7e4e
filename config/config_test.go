package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checksum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(WithPath(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
root: /var/www/html
workers: 4
timeout: 5s
insecure: true
ignore:
  - "**/.DS_Store"
core_bundled:
  hello: wp-content/plugins/hello.php
manifest_dir: /srv/checksums
`)
	cfg, err := Load(WithPath(path))
	require.NoError(t, err)

	assert.Equal(t, "/var/www/html", cfg.Root)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, []string{"**/.DS_Store"}, cfg.Ignore)
	assert.Equal(t, "wp-content/plugins/hello.php", cfg.CoreBundled["hello"])
	assert.Equal(t, "/srv/checksums", cfg.ManifestDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, "en_US", cfg.Locale)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "workers: [1"},
		{"zero workers", "workers: 0"},
		{"bad duration", "timeout: soon"},
		{"bad pattern", "ignore: ['[oops']"},
		{"empty core path", "core_bundled: {hello: ''}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithPath(writeConfig(t, tt.content)))
			assert.Error(t, err)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "checksum.yaml", filepath.Base(DefaultPath()))
}
