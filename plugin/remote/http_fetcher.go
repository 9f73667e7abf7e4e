// Package remote fetches checksum manifests over HTTP.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/reglet-dev/plugin-checksum/netutil"
	"github.com/reglet-dev/plugin-checksum/parser"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

const (
	// DefaultDownloadsURL serves per-plugin checksum documents.
	DefaultDownloadsURL = "https://downloads.wordpress.org"
	// DefaultAPIURL serves core checksums and plugin version listings.
	DefaultAPIURL = "https://api.wordpress.org"

	defaultMaxBodySize = 10 * 1024 * 1024
)

// FetchError reports a failed manifest download.
type FetchError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcher implements ports.ManifestFetcher and ports.VersionCatalog
// against the public plugin directory API.
type HTTPFetcher struct {
	client         *http.Client
	insecureClient *http.Client
	parser         parser.ChecksumParser
	logger         *slog.Logger
	downloadsURL   string
	apiURL         string
	userAgent      string
	timeout        time.Duration
	maxBodySize    int64
	maxRetries     int
	insecure       bool
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithDownloadsURL overrides DefaultDownloadsURL.
func WithDownloadsURL(u string) HTTPOption {
	return func(f *HTTPFetcher) {
		if u != "" {
			f.downloadsURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIURL overrides DefaultAPIURL.
func WithAPIURL(u string) HTTPOption {
	return func(f *HTTPFetcher) {
		if u != "" {
			f.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// WithInsecure allows one retry without certificate verification when the
// server certificate cannot be verified.
func WithInsecure(insecure bool) HTTPOption {
	return func(f *HTTPFetcher) { f.insecure = insecure }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxRetries sets how often transient failures are retried.
func WithMaxRetries(n int) HTTPOption {
	return func(f *HTTPFetcher) { f.maxRetries = n }
}

// WithMaxBodySize caps response bodies.
func WithMaxBodySize(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithUserAgent sets the User-Agent of every request.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) { f.logger = l }
}

// WithHTTPClient replaces the verifying client. The insecure fallback is
// still built internally.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// NewHTTPFetcher creates a fetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		downloadsURL: DefaultDownloadsURL,
		apiURL:       DefaultAPIURL,
		parser:       parser.NewJSONChecksumParser(),
		logger:       slog.Default(),
		timeout:      30 * time.Second,
		maxBodySize:  defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	onRetry := func(attempt int, wait time.Duration, status int) {
		f.logger.Debug("retrying manifest request", "attempt", attempt, "wait", wait, "status", status)
	}
	if f.client == nil {
		f.client = netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:    f.timeout,
			MaxRetries: f.maxRetries,
			OnRetry:    onRetry,
			UserAgent:  f.userAgent,
		})
	}
	if f.insecure {
		f.insecureClient = netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:    f.timeout,
			MaxRetries: f.maxRetries,
			OnRetry:    onRetry,
			UserAgent:  f.userAgent,
			Insecure:   true,
		})
	}
	return f
}

// Fetch downloads and parses the manifest for req.
func (f *HTTPFetcher) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	target, kind, err := f.manifestURL(req)
	if err != nil {
		return nil, err
	}

	body, err := f.get(ctx, target)
	if err != nil {
		return nil, err
	}

	manifest, err := f.parser.Parse(body, kind)
	if err != nil {
		return nil, &FetchError{URL: netutil.StripCredentials(target), Err: err}
	}
	f.logger.Debug("manifest downloaded", "request", req.String(), "files", manifest.Len())
	return manifest, nil
}

func (f *HTTPFetcher) manifestURL(req entities.ManifestRequest) (string, parser.DocumentKind, error) {
	if req.Version == "" {
		return "", 0, fmt.Errorf("manifest request for %q has no version", req.Name)
	}

	if req.Kind == values.KindCoreBundled {
		q := url.Values{}
		q.Set("version", req.Version)
		q.Set("locale", req.Locale)
		return f.apiURL + "/core/checksums/1.0/?" + q.Encode(), parser.CoreDocument, nil
	}

	name, err := values.NewPluginName(req.Name)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("%s/plugin-checksums/%s/%s.json",
		f.downloadsURL, url.PathEscape(name.String()), url.PathEscape(req.Version)), parser.PluginDocument, nil
}

type pluginInfo struct {
	Versions map[string]json.RawMessage `json:"versions"`
	Error    string                     `json:"error"`
}

// AvailableVersions lists the published versions of a plugin.
func (f *HTTPFetcher) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	slug, err := values.NewPluginName(name)
	if err != nil {
		return nil, err
	}
	target := fmt.Sprintf("%s/plugins/info/1.0/%s.json", f.apiURL, url.PathEscape(slug.String()))

	body, err := f.get(ctx, target)
	if err != nil {
		return nil, err
	}

	var info pluginInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("decoding plugin info: %w", err)}
	}
	if info.Error != "" {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("%s", info.Error)}
	}

	versions := make([]string, 0, len(info.Versions))
	for v := range info.Versions {
		if v != "trunk" {
			versions = append(versions, v)
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// get performs a GET and returns the body of a 200 response.
func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	safe := netutil.StripCredentials(target)

	body, err := f.do(ctx, f.client, target)
	if err != nil && f.insecureClient != nil && netutil.IsCertificateError(err) {
		f.logger.Warn("Retrying without certificate verification.", "url", safe, "error", err)
		body, err = f.do(ctx, f.insecureClient, target)
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{URL: safe, Err: err}
	}
	return body, nil
}

func (f *HTTPFetcher) do(ctx context.Context, client *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: netutil.StripCredentials(target), StatusCode: resp.StatusCode}
	}

	body, err := netutil.ReadAll(resp.Body, f.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
