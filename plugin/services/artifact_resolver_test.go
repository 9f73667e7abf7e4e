package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

type fakeFetcher struct {
	manifests map[string]*entities.Manifest
	requests  []entities.ManifestRequest
}

func (f *fakeFetcher) Fetch(_ context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	f.requests = append(f.requests, req)
	if m, ok := f.manifests[req.CacheKey()]; ok {
		return m, nil
	}
	return nil, &entities.ManifestNotFoundError{Request: req}
}

type fakeLister struct {
	files map[string][]string
	calls []string
}

func (l *fakeLister) ListFiles(_ context.Context, root string) ([]string, error) {
	l.calls = append(l.calls, root)
	files, ok := l.files[root]
	if !ok {
		return nil, errors.New("no such directory")
	}
	return files, nil
}

type fakeCatalog struct {
	versions []string
	err      error
}

func (c *fakeCatalog) AvailableVersions(context.Context, string) ([]string, error) {
	return c.versions, c.err
}

type highestResolver struct{}

func (highestResolver) Resolve(constraint string, available []string) (string, error) {
	if len(available) == 0 {
		return "", errors.New("nothing available")
	}
	return available[len(available)-1], nil
}

func pluginKey(name, version string) string {
	return entities.ManifestRequest{Name: name, Version: version}.CacheKey()
}

func coreKey(version, locale string) string {
	return entities.ManifestRequest{Version: version, Locale: locale, Kind: values.KindCoreBundled}.CacheKey()
}

func resolverInventory() *entities.Inventory {
	inv := entities.NewInventory("/plugins", "/mu")
	inv.PlatformVersion = "6.4.2"
	inv.Plugins = []entities.InstalledArtifact{
		{Name: "akismet", MainFile: "akismet/akismet.php", Version: "5.3"},
		{Name: "solo", MainFile: "solo.php", Version: "1.0"},
		{Name: "hello", MainFile: "hello.php", Kind: values.KindCoreBundled, CorePath: "wp-content/plugins/hello.php"},
	}
	inv.MustUse = []entities.InstalledArtifact{
		{Name: "loader", MainFile: "loader.php", Version: "0.1", Kind: values.KindMustUse},
		{Name: "mu-dir", MainFile: "mu-dir/mu-dir.php", Version: "2.0", Kind: values.KindMustUse},
	}
	return inv
}

func TestArtifactResolver_StandardDirectory(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	manifest := entities.NewManifest(nil)
	fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{pluginKey("akismet", "5.3"): manifest}}
	lister := &fakeLister{files: map[string][]string{"/plugins/akismet": {"akismet.php", "readme.txt"}}}

	res, err := NewArtifactResolver(fetcher, lister, inv).Resolve(context.Background(), inv.Plugins[0], "")
	require.NoError(t, err)
	assert.Same(t, manifest, res.Manifest)
	assert.Equal(t, []string{"akismet.php", "readme.txt"}, res.LocalFiles)
	assert.Equal(t, "5.3", res.Artifact.Version())
	assert.Equal(t, "/plugins/akismet", res.Artifact.Directory())
}

func TestArtifactResolver_OverrideWins(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{pluginKey("solo", "9.9"): entities.NewManifest(nil)}}
	lister := &fakeLister{}

	res, err := NewArtifactResolver(fetcher, lister, inv).Resolve(context.Background(), inv.Plugins[1], "9.9")
	require.NoError(t, err)
	assert.Equal(t, "9.9", res.Artifact.Version())
	assert.Equal(t, []string{"solo.php"}, res.LocalFiles)
	assert.Empty(t, lister.calls, "single-file artifacts are never walked")
}

func TestArtifactResolver_NoVersion(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	inv.OrphanDirs = []string{"ghost"}
	orphan, ok := inv.FindPlugin("ghost")
	require.True(t, ok)

	fetcher := &fakeFetcher{}
	_, err := NewArtifactResolver(fetcher, &fakeLister{}, inv).Resolve(context.Background(), orphan, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrVersionUnresolvable)
	assert.Empty(t, fetcher.requests, "no fetch without a version")
}

func TestArtifactResolver_FetchFailures(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	tests := []struct {
		name      string
		installed entities.InstalledArtifact
		want      error
		message   string
	}{
		{
			"standard plugin",
			inv.Plugins[0],
			entities.ErrManifestUnavailable,
			"Could not retrieve the checksums for version 5.3 of plugin akismet, skipping.",
		},
		{
			"loose must-use file",
			inv.MustUse[0],
			entities.ErrUnverifiableLoader,
			"Must-use plugin 'loader.php' appears to be a custom file or loader plugin and cannot be verified.",
		},
		{
			"must-use directory",
			inv.MustUse[1],
			entities.ErrManifestUnavailable,
			"Could not retrieve the checksums for version 2.0 of must-use plugin mu-dir, skipping.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewArtifactResolver(&fakeFetcher{}, &fakeLister{}, inv, WithResolverLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			_, err := r.Resolve(context.Background(), tt.installed, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, entities.ErrManifestNotFound)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestArtifactResolver_CoreBundled(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	set := values.NewChecksumSet(map[string][]string{"md5": {md5Hex("hello")}})
	core := entities.NewManifest(map[string]values.ChecksumSet{
		"wp-content/plugins/hello.php": set,
		"wp-includes/version.php":      set,
	})

	t.Run("rekeys the core entry", func(t *testing.T) {
		fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{coreKey("6.4.2", "en_US"): core}}
		res, err := NewArtifactResolver(fetcher, &fakeLister{}, inv).Resolve(context.Background(), inv.Plugins[2], "7.0")
		require.NoError(t, err)
		assert.Equal(t, []string{"hello.php"}, res.Manifest.Paths())
		assert.Equal(t, []string{"hello.php"}, res.LocalFiles)
		assert.Equal(t, "6.4.2", res.Artifact.Version(), "override does not apply to core artifacts")
		require.Len(t, fetcher.requests, 1)
		assert.Equal(t, "en_US", fetcher.requests[0].Locale)
	})

	t.Run("configured locale and platform version", func(t *testing.T) {
		fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{coreKey("6.5", "de_DE"): core}}
		r := NewArtifactResolver(fetcher, &fakeLister{}, inv, WithLocale("de_DE"), WithPlatformVersion("6.5"))
		_, err := r.Resolve(context.Background(), inv.Plugins[2], "")
		require.NoError(t, err)
	})

	t.Run("entry absent from core manifest", func(t *testing.T) {
		empty := entities.NewManifest(map[string]values.ChecksumSet{"wp-includes/version.php": set})
		fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{coreKey("6.4.2", "en_US"): empty}}
		_, err := NewArtifactResolver(fetcher, &fakeLister{}, inv).Resolve(context.Background(), inv.Plugins[2], "")
		assert.ErrorIs(t, err, entities.ErrManifestUnavailable)
	})

	t.Run("no platform version", func(t *testing.T) {
		noCore := resolverInventory()
		noCore.PlatformVersion = ""
		_, err := NewArtifactResolver(&fakeFetcher{}, &fakeLister{}, noCore).Resolve(context.Background(), noCore.Plugins[2], "")
		assert.ErrorIs(t, err, entities.ErrVersionUnresolvable)
	})

	t.Run("directory artifact keeps files below core path", func(t *testing.T) {
		dirInv := resolverInventory()
		bundled := entities.InstalledArtifact{
			Name: "hello-dolly", MainFile: "hello-dolly/hello.php",
			Kind: values.KindCoreBundled, CorePath: "wp-content/plugins/hello-dolly/hello.php",
		}
		dirCore := entities.NewManifest(map[string]values.ChecksumSet{
			"wp-content/plugins/hello-dolly/hello.php":  set,
			"wp-content/plugins/hello-dolly/readme.txt": set,
			"wp-content/plugins/akismet/akismet.php":    set,
		})
		fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{coreKey("6.4.2", "en_US"): dirCore}}
		lister := &fakeLister{files: map[string][]string{"/plugins/hello-dolly": {"hello.php"}}}

		res, err := NewArtifactResolver(fetcher, lister, dirInv).Resolve(context.Background(), bundled, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"hello.php", "readme.txt"}, res.Manifest.Paths())
		assert.Equal(t, []string{"hello.php"}, res.LocalFiles)
	})
}

func TestArtifactResolver_VersionConstraint(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{pluginKey("solo", "1.4"): entities.NewManifest(nil)}}

	r := NewArtifactResolver(fetcher, &fakeLister{}, inv,
		WithVersionConstraints(highestResolver{}, &fakeCatalog{versions: []string{"1.0", "1.4"}}))
	res, err := r.Resolve(context.Background(), inv.Plugins[1], "^1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.4", res.Artifact.Version())

	r = NewArtifactResolver(fetcher, &fakeLister{}, inv,
		WithVersionConstraints(highestResolver{}, &fakeCatalog{err: errors.New("offline")}))
	_, err = r.Resolve(context.Background(), inv.Plugins[1], "^1.0")
	assert.ErrorIs(t, err, entities.ErrVersionUnresolvable)
}

func TestArtifactResolver_ListerFailure(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	fetcher := &fakeFetcher{manifests: map[string]*entities.Manifest{pluginKey("akismet", "5.3"): entities.NewManifest(nil)}}

	_, err := NewArtifactResolver(fetcher, &fakeLister{}, inv).Resolve(context.Background(), inv.Plugins[0], "")
	require.Error(t, err)
	var skip *entities.SkipError
	assert.False(t, errors.As(err, &skip), "listing failures are not skips")
}

func TestArtifactResolver_CancelledContext(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewArtifactResolver(&fakeFetcher{}, &fakeLister{}, inv).Resolve(ctx, inv.Plugins[0], "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArtifactResolver_UnknownKind(t *testing.T) {
	t.Parallel()

	inv := resolverInventory()
	_, err := NewArtifactResolver(&fakeFetcher{}, &fakeLister{}, inv).
		Resolve(context.Background(), entities.InstalledArtifact{Name: "x", MainFile: "x.php", Kind: values.ArtifactKind(42)}, "")
	assert.Error(t, err)
}
