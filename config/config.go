// Package config loads the checksum tool configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by all commands. Command-line flags
// override file values.
type Config struct {
	CoreBundled map[string]string `yaml:"core_bundled,omitempty"`
	Root        string            `yaml:"root,omitempty"`
	PluginDir   string            `yaml:"plugin_dir,omitempty"`
	MustUseDir  string            `yaml:"mu_plugin_dir,omitempty"`
	Source      string            `yaml:"source,omitempty"`
	APIURL      string            `yaml:"api_url,omitempty"`
	ManifestDir string            `yaml:"manifest_dir,omitempty"`
	Locale      string            `yaml:"locale,omitempty"`
	CoreVersion string            `yaml:"core_version,omitempty"`
	HistoryDB   string            `yaml:"history_db,omitempty"`
	Ignore      []string          `yaml:"ignore,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	Workers     int               `yaml:"workers,omitempty"`
	MaxRetries  int               `yaml:"max_retries,omitempty"`
	Insecure    bool              `yaml:"insecure,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Root:       ".",
		Locale:     "en_US",
		Timeout:    30 * time.Second,
		Workers:    1,
		MaxRetries: 3,
	}
}

// Validate checks value ranges and patterns.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	for name, corePath := range c.CoreBundled {
		if name == "" || corePath == "" {
			return fmt.Errorf("core_bundled entries need a name and a core path")
		}
	}
	return nil
}

type loaderConfig struct {
	path string
}

func defaultLoaderConfig() loaderConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return loaderConfig{path: filepath.Join(home, ".reglet", "checksum.yaml")}
}

// Option configures Load.
type Option func(*loaderConfig)

// WithPath sets the path to the config file.
func WithPath(path string) Option {
	return func(c *loaderConfig) {
		if path != "" {
			c.path = path
		}
	}
}

// DefaultPath returns the file Load reads when WithPath is not given.
func DefaultPath() string {
	return defaultLoaderConfig().path
}

// Load reads the config file over Default. A missing file yields the
// defaults unchanged.
func Load(opts ...Option) (Config, error) {
	lc := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&lc)
	}

	cfg := Default()
	data, err := os.ReadFile(lc.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", lc.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", lc.path, err)
	}
	return cfg, nil
}
