package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

const pluginJSON = `{
	"plugin": "akismet",
	"version": "5.3",
	"source": "https://plugins.svn.wordpress.org/akismet/tags/5.3/",
	"zip": "https://downloads.wordpress.org/plugins/akismet.5.3.zip",
	"files": {
		"akismet.php": {"md5": "AAAA", "sha256": "bbbb"},
		"readme.txt": {"md5": "cccc", "sha256": ["dddd", "eeee"]}
	}
}`

func TestJSONChecksumParser_Plugin(t *testing.T) {
	t.Parallel()

	m, err := NewJSONChecksumParser().Parse([]byte(pluginJSON), PluginDocument)
	require.NoError(t, err)

	assert.Equal(t, []string{"akismet.php", "readme.txt"}, m.Paths())

	set, ok := m.Lookup("akismet.php")
	require.True(t, ok)
	algo, hashes, ok := set.Preferred()
	require.True(t, ok)
	assert.Equal(t, values.AlgorithmSHA256, algo)
	assert.Equal(t, []string{"bbbb"}, hashes)
	assert.True(t, set.Contains(values.AlgorithmMD5, "aaaa"))

	set, _ = m.Lookup("readme.txt")
	assert.ElementsMatch(t, []string{"dddd", "eeee"}, set.Accepted(values.AlgorithmSHA256))
}

func TestJSONChecksumParser_Core(t *testing.T) {
	t.Parallel()

	body := `{"checksums": {"wp-content/plugins/hello.php": "abcd", "wp-settings.php": {"sha256": ["ef01"]}}}`
	m, err := NewJSONChecksumParser().Parse([]byte(body), CoreDocument)
	require.NoError(t, err)

	set, ok := m.Lookup("wp-content/plugins/hello.php")
	require.True(t, ok)
	algo, _, _ := set.Preferred()
	assert.Equal(t, values.AlgorithmMD5, algo)

	set, _ = m.Lookup("wp-settings.php")
	algo, _, _ = set.Preferred()
	assert.Equal(t, values.AlgorithmSHA256, algo)
}

func TestJSONChecksumParser_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		kind DocumentKind
	}{
		{"not json", `<html>`, PluginDocument},
		{"missing files", `{"plugin": "x"}`, PluginDocument},
		{"number hash", `{"files": {"a.php": {"md5": 12}}}`, PluginDocument},
		{"empty hash list", `{"files": {"a.php": {"sha256": []}}}`, PluginDocument},
		{"core lookup failed", `{"checksums": false}`, CoreDocument},
		{"plugin body for core", pluginJSON, CoreDocument},
	}

	p := NewJSONChecksumParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.body), tt.kind)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestYAMLChecksumParser(t *testing.T) {
	t.Parallel()

	body := `
plugin: akismet
version: "5.3"
files:
  akismet.php:
    sha256: "bbbb"
  views/config.php:
    md5: ["aaaa", "cccc"]
`
	m, err := NewYAMLChecksumParser().Parse([]byte(body), PluginDocument)
	require.NoError(t, err)
	assert.Equal(t, []string{"akismet.php", "views/config.php"}, m.Paths())

	set, _ := m.Lookup("views/config.php")
	assert.True(t, set.Contains(values.AlgorithmMD5, "cccc"))

	_, err = NewYAMLChecksumParser().Parse([]byte("files: [1, 2]"), PluginDocument)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = NewYAMLChecksumParser().Parse([]byte("files: {a: [unclosed"), PluginDocument)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestEncodeJSON_ParsesBack(t *testing.T) {
	t.Parallel()

	original, err := NewJSONChecksumParser().Parse([]byte(pluginJSON), PluginDocument)
	require.NoError(t, err)

	for _, kind := range []DocumentKind{PluginDocument, CoreDocument} {
		t.Run(kind.String(), func(t *testing.T) {
			data, err := EncodeJSON(original, kind, "akismet", "5.3")
			require.NoError(t, err)

			decoded, err := NewJSONChecksumParser().Parse(data, kind)
			require.NoError(t, err)
			assert.Equal(t, original.Paths(), decoded.Paths())

			set, _ := decoded.Lookup("readme.txt")
			assert.ElementsMatch(t, []string{"dddd", "eeee"}, set.Accepted(values.AlgorithmSHA256))
		})
	}
}
