package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reglet-dev/plugin-checksum/config"
	"github.com/reglet-dev/plugin-checksum/netutil"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/filesystem"
	"github.com/reglet-dev/plugin-checksum/plugin/oci"
	"github.com/reglet-dev/plugin-checksum/plugin/ports"
	"github.com/reglet-dev/plugin-checksum/plugin/remote"
	"github.com/reglet-dev/plugin-checksum/plugin/resolvers"
	"github.com/reglet-dev/plugin-checksum/plugin/services"
)

// siteFlags locate the installation and where its checksums come from.
// Values given on the command line override the config file.
type siteFlags struct {
	root        string
	pluginDir   string
	muDir       string
	inventory   string
	source      string
	manifestDir string
	locale      string
	coreVersion string
	ignore      []string
	timeout     time.Duration
	insecure    bool
}

func (s *siteFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&s.root, "root", "", "site root directory")
	fs.StringVar(&s.pluginDir, "plugin-dir", "", "plugin directory (default <root>/wp-content/plugins)")
	fs.StringVar(&s.muDir, "mu-plugin-dir", "", "must-use plugin directory (default <root>/wp-content/mu-plugins)")
	fs.StringVar(&s.inventory, "inventory", "", "read installed plugins from an exported inventory file instead of scanning")
	fs.StringVar(&s.source, "source", "", "checksum source, an https:// base URL or oci://registry/repository")
	fs.StringVar(&s.manifestDir, "manifest-dir", "", "local manifest mirror, read first and filled from the source")
	fs.StringVar(&s.locale, "locale", "", "locale of the core checksums")
	fs.StringVar(&s.coreVersion, "core-version", "", "platform version used for core-bundled plugins")
	fs.StringSliceVar(&s.ignore, "ignore", nil, "glob of local files to leave out (repeatable)")
	fs.DurationVar(&s.timeout, "timeout", 0, "per-request timeout")
	fs.BoolVar(&s.insecure, "insecure", false, "retry without certificate verification when TLS verification fails")
}

// apply overlays the flags the user set on cfg.
func (s *siteFlags) apply(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	changed := cmd.Flags().Changed
	if changed("root") {
		cfg.Root = s.root
	}
	if changed("plugin-dir") {
		cfg.PluginDir = s.pluginDir
	}
	if changed("mu-plugin-dir") {
		cfg.MustUseDir = s.muDir
	}
	if changed("source") {
		cfg.Source = s.source
	}
	if changed("manifest-dir") {
		cfg.ManifestDir = s.manifestDir
	}
	if changed("locale") {
		cfg.Locale = s.locale
	}
	if changed("core-version") {
		cfg.CoreVersion = s.coreVersion
	}
	if changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, s.ignore...)
	}
	if changed("insecure") {
		cfg.Insecure = s.insecure
	}
	if changed("timeout") {
		cfg.Timeout = s.timeout
	}
	if err := cfg.Validate(); err != nil {
		return cfg, usageError(err)
	}
	return cfg, nil
}

// inventorySource scans the site, or loads an exported snapshot.
func (a *app) inventorySource(cfg config.Config, inventoryFile string) ports.InventorySource {
	if inventoryFile != "" {
		return filesystem.NewFileInventorySource(inventoryFile)
	}

	opts := []filesystem.InventoryOption{
		filesystem.WithPluginDir(cfg.PluginDir),
		filesystem.WithMustUseDir(cfg.MustUseDir),
		filesystem.WithInventoryPlatformVersion(cfg.CoreVersion),
		filesystem.WithInventoryLogger(a.logger),
	}
	if len(cfg.CoreBundled) > 0 {
		opts = append(opts, filesystem.WithCoreBundled(cfg.CoreBundled))
	}
	return filesystem.NewFSInventory(cfg.Root, opts...)
}

// upstream is the remote checksum source: an OCI repository for oci://
// sources, the plugin directory API otherwise.
func (a *app) upstream(cfg config.Config) (ports.ManifestFetcher, error) {
	if netutil.IsOCI(cfg.Source) {
		f, err := oci.NewRegistryFetcher(cfg.Source,
			oci.WithAuth(oci.NewEnvAuthProvider()),
			oci.WithLogger(a.logger))
		if err != nil {
			return nil, usageError(fmt.Errorf("invalid --source: %w", err))
		}
		return f, nil
	}

	return remote.NewHTTPFetcher(
		remote.WithDownloadsURL(cfg.Source),
		remote.WithAPIURL(cfg.APIURL),
		remote.WithInsecure(cfg.Insecure),
		remote.WithTimeout(cfg.Timeout),
		remote.WithMaxRetries(cfg.MaxRetries),
		remote.WithUserAgent("plugin-checksum/"+buildVersion()),
		remote.WithLogger(a.logger),
	), nil
}

// manifestChain builds memory cache -> mirror -> upstream. The returned
// RemoteFetcher doubles as the version catalog.
func (a *app) manifestChain(cfg config.Config, upstream ports.ManifestFetcher) (services.ManifestSource, *resolvers.RemoteFetcher) {
	links := []services.ManifestSource{resolvers.NewMemoryFetcher()}

	var store ports.ManifestStore
	if cfg.ManifestDir != "" {
		mirror := filesystem.NewMirrorFetcher(cfg.ManifestDir, a.logger)
		links = append(links, mirror)
		store = mirror
	}

	tail := resolvers.NewRemoteFetcher(upstream, store, a.logger)
	links = append(links, tail)
	return services.Chain(links...), tail
}

// verifier is everything one verify run needs.
type verifier struct {
	inventory *entities.Inventory
	resolver  *services.ArtifactResolver
}

func (a *app) buildVerifier(ctx context.Context, cfg config.Config, inventoryFile string) (*verifier, error) {
	inv, err := a.inventorySource(cfg, inventoryFile).Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading installed plugins: %w", err)
	}
	a.logger.Debug("inventory loaded",
		"plugins", len(inv.Plugins),
		"mu_plugins", len(inv.MustUse),
		"platform_version", inv.PlatformVersion)

	lister, err := filesystem.NewDirectoryLister(filesystem.WithIgnore(cfg.Ignore...))
	if err != nil {
		return nil, usageError(err)
	}

	up, err := a.upstream(cfg)
	if err != nil {
		return nil, err
	}
	chain, catalog := a.manifestChain(cfg, up)

	resolver := services.NewArtifactResolver(chain, lister, inv,
		services.WithLocale(cfg.Locale),
		services.WithPlatformVersion(cfg.CoreVersion),
		services.WithVersionConstraints(resolvers.NewSemverResolver(), catalog),
		services.WithResolverLogger(a.logger),
	)
	return &verifier{inventory: inv, resolver: resolver}, nil
}
