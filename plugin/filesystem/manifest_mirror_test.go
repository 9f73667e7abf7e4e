package filesystem_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/plugin-checksum/plugin"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/filesystem"
	"github.com/reglet-dev/plugin-checksum/plugin/services"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

type stubSource struct {
	services.BaseFetcher
	manifest *entities.Manifest
	calls    int
}

func (s *stubSource) Fetch(context.Context, entities.ManifestRequest) (*entities.Manifest, error) {
	s.calls++
	return s.manifest, nil
}

func TestMirrorFetcher_ServesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	put(t, dir, "plugins/akismet/5.3.json", `{"files": {"akismet.php": {"sha256": "aa"}}}`)
	put(t, dir, "plugins/demo/1.0.yaml", "files:\n  demo.php:\n    md5: bb\n")
	put(t, dir, "core/6.4.2/en_US.json", `{"checksums": {"wp-content/plugins/hello.php": "cc"}}`)

	mirror := filesystem.NewMirrorFetcher(dir, plugin.NewTestLogger())
	ctx := context.Background()

	m, err := mirror.Fetch(ctx, entities.ManifestRequest{Name: "akismet", Version: "5.3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"akismet.php"}, m.Paths())

	m, err = mirror.Fetch(ctx, entities.ManifestRequest{Name: "demo", Version: "1.0", Kind: values.KindMustUse})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo.php"}, m.Paths())

	m, err = mirror.Fetch(ctx, entities.ManifestRequest{Name: "hello", Version: "6.4.2", Locale: "en_US", Kind: values.KindCoreBundled})
	require.NoError(t, err)
	assert.Equal(t, []string{"wp-content/plugins/hello.php"}, m.Paths())
}

func TestMirrorFetcher_Delegates(t *testing.T) {
	t.Parallel()

	next := &stubSource{manifest: entities.NewManifest(nil)}
	mirror := filesystem.NewMirrorFetcher(filepath.Join(t.TempDir(), "absent"), nil)
	mirror.SetNext(next)

	_, err := mirror.Fetch(context.Background(), entities.ManifestRequest{Name: "akismet", Version: "5.3"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)

	alone := filesystem.NewMirrorFetcher(t.TempDir(), nil)
	_, err = alone.Fetch(context.Background(), entities.ManifestRequest{Name: "akismet", Version: "5.3"})
	assert.ErrorIs(t, err, entities.ErrManifestNotFound)
}

func TestMirrorFetcher_RejectsTraversal(t *testing.T) {
	t.Parallel()

	mirror := filesystem.NewMirrorFetcher(t.TempDir(), nil)
	for _, req := range []entities.ManifestRequest{
		{Name: "../etc", Version: "1.0"},
		{Name: "akismet", Version: "../../passwd"},
		{Name: "hello", Version: "6.4", Locale: "../x", Kind: values.KindCoreBundled},
	} {
		_, err := mirror.Fetch(context.Background(), req)
		assert.Error(t, err, req.String())
		assert.NotErrorIs(t, err, entities.ErrManifestNotFound)
	}
}

func TestMirrorFetcher_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	put(t, dir, "plugins/akismet/5.3.json", `{"nope": true}`)

	_, err := filesystem.NewMirrorFetcher(dir, nil).Fetch(context.Background(), entities.ManifestRequest{Name: "akismet", Version: "5.3"})
	assert.Error(t, err)
}

func TestMirrorFetcher_StoreThenFetch(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mirror")
	mirror := filesystem.NewMirrorFetcher(dir, nil)
	ctx := context.Background()

	manifest := entities.NewManifest(map[string]values.ChecksumSet{
		"akismet.php": values.NewChecksumSet(map[string][]string{"sha256": {"aa", "bb"}}),
		"views/a.php": values.NewChecksumSet(map[string][]string{"md5": {"cc"}}),
	})
	core := entities.NewManifest(map[string]values.ChecksumSet{
		"wp-content/plugins/hello.php": values.NewChecksumSet(map[string][]string{"md5": {"dd"}}),
	})

	pluginReq := entities.ManifestRequest{Name: "akismet", Version: "5.3"}
	coreReq := entities.ManifestRequest{Name: "hello", Version: "6.4.2", Locale: "de_DE", Kind: values.KindCoreBundled}
	require.NoError(t, mirror.Store(ctx, pluginReq, manifest))
	require.NoError(t, mirror.Store(ctx, coreReq, core))

	got, err := mirror.Fetch(ctx, pluginReq)
	require.NoError(t, err)
	assert.Equal(t, manifest.Paths(), got.Paths())
	set, _ := got.Lookup("akismet.php")
	assert.True(t, set.Contains(values.AlgorithmSHA256, "bb"))

	got, err = mirror.Fetch(ctx, coreReq)
	require.NoError(t, err)
	assert.Equal(t, core.Paths(), got.Paths())

	assert.FileExists(t, filepath.Join(dir, "core", "6.4.2", "de_DE.json"))
}
