package filesystem

import (
	"io"
	"os"
	"regexp"
	"strings"
)

// headerWindow is how much of a file is searched for header fields.
const headerWindow = 8 * 1024

var (
	pluginNameHeader = regexp.MustCompile(`(?mi)^[ \t/*#@]*Plugin Name:(.*)$`)
	versionHeader    = regexp.MustCompile(`(?mi)^[ \t/*#@]*Version:(.*)$`)
	wpVersionAssign  = regexp.MustCompile(`\$wp_version\s*=\s*['"]([^'"]+)['"]`)
)

// pluginHeader holds the header fields the inventory cares about.
type pluginHeader struct {
	Name    string
	Version string
}

// readPluginHeader reads the header block at the top of a PHP file. ok is
// false when the file has no "Plugin Name:" field.
func readPluginHeader(path string) (pluginHeader, bool, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a directory scan
	if err != nil {
		return pluginHeader{}, false, err
	}
	defer func() { _ = f.Close() }()

	buf, err := io.ReadAll(io.LimitReader(f, headerWindow))
	if err != nil {
		return pluginHeader{}, false, err
	}
	text := strings.ReplaceAll(string(buf), "\r", "\n")

	h := pluginHeader{
		Name:    headerValue(pluginNameHeader, text),
		Version: headerValue(versionHeader, text),
	}
	return h, h.Name != "", nil
}

func headerValue(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	v = strings.TrimSpace(strings.TrimSuffix(v, "*/"))
	v = strings.TrimSpace(strings.TrimSuffix(v, "?>"))
	return v
}

// readPlatformVersion extracts $wp_version from version.php.
func readPlatformVersion(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixed location below the site root
	if err != nil {
		return "", err
	}
	m := wpVersionAssign.FindSubmatch(data)
	if m == nil {
		return "", nil
	}
	return string(m[1]), nil
}
