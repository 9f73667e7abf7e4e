package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/plugin-checksum/config"
	"github.com/reglet-dev/plugin-checksum/internal/progress"
	"github.com/reglet-dev/plugin-checksum/netutil"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/filesystem"
	"github.com/reglet-dev/plugin-checksum/plugin/oci"
	"github.com/reglet-dev/plugin-checksum/plugin/ports"
	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

func newMirrorCmd(a *app) *cobra.Command {
	var (
		site siteFlags
		to   string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "mirror [<plugin>...]",
		Short: "Copy published checksums of installed plugins to a mirror",
		Long: `Mirror fetches the checksums for the installed version of each named
plugin, or of every plugin with --all, and stores them in a directory
usable with "verify --manifest-dir" or publishes them to an OCI
repository usable with "verify --source=oci://...". Core checksums are
included when a core-bundled plugin is installed.`,
		Example: `  plugin-checksum mirror --all --to ./checksums
  plugin-checksum mirror akismet --to oci://registry.example.com/checksums`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return usageError(fmt.Errorf("--to is required"))
			}
			if len(args) == 0 && !all {
				return usageError(entities.ErrNoArtifactsSpecified)
			}

			cfg, err := site.apply(cmd, a.cfg)
			if err != nil {
				return err
			}
			inv, err := a.inventorySource(cfg, site.inventory).Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading installed plugins: %w", err)
			}
			up, err := a.upstream(cfg)
			if err != nil {
				return err
			}
			store, err := a.mirrorStore(to)
			if err != nil {
				return err
			}

			reqs := a.mirrorRequests(inv, args, all, cfg)
			return a.runMirror(cmd, up, store, reqs)
		},
	}
	site.bind(cmd.Flags())
	cmd.Flags().StringVar(&to, "to", "", "destination directory or oci://registry/repository")
	cmd.Flags().BoolVar(&all, "all", false, "mirror all installed plugins")
	return cmd
}

func (a *app) mirrorStore(to string) (ports.ManifestStore, error) {
	if netutil.IsOCI(to) {
		f, err := oci.NewRegistryFetcher(to,
			oci.WithAuth(oci.NewEnvAuthProvider()),
			oci.WithLogger(a.logger))
		if err != nil {
			return nil, usageError(fmt.Errorf("invalid --to: %w", err))
		}
		return f, nil
	}
	return filesystem.NewMirrorFetcher(to, a.logger), nil
}

// mirrorRequests lists the manifests covering the selected plugins.
// Core-bundled plugins share one core manifest; plugins without a known
// version are left out.
func (a *app) mirrorRequests(inv *entities.Inventory, names []string, all bool, cfg config.Config) []entities.ManifestRequest {
	var selected []entities.InstalledArtifact
	if all {
		selected = inv.Plugins
	} else {
		for _, name := range names {
			p, ok := inv.FindPlugin(name)
			if !ok {
				newStreamNotifier(a.stderr).Warn(fmt.Sprintf("The '%s' plugin could not be found.", name))
				continue
			}
			selected = append(selected, p)
		}
	}

	platform := cfg.CoreVersion
	if platform == "" {
		platform = inv.PlatformVersion
	}

	var reqs []entities.ManifestRequest
	seen := make(map[string]struct{})
	for _, p := range selected {
		req := entities.ManifestRequest{Name: p.Name, Version: p.Version, Kind: p.Kind}
		if p.Kind == values.KindCoreBundled {
			req = entities.ManifestRequest{Name: p.Name, Version: platform, Locale: cfg.Locale, Kind: p.Kind}
		}
		if req.Version == "" {
			continue
		}
		if _, dup := seen[req.CacheKey()]; dup {
			continue
		}
		seen[req.CacheKey()] = struct{}{}
		reqs = append(reqs, req)
	}
	return reqs
}

func (a *app) runMirror(cmd *cobra.Command, up ports.ManifestFetcher, store ports.ManifestStore, reqs []entities.ManifestRequest) error {
	ctx := cmd.Context()

	var observer ports.ProgressObserver
	if a.stderrIsTerminal() {
		observer = progress.New(a.stderr)
		observer.Start(len(reqs))
	}

	failed := 0
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := up.Fetch(ctx, req)
		if err == nil {
			err = store.Store(ctx, req, m)
		}
		if err != nil {
			failed++
			a.logger.Debug("mirroring failed", "request", req.String(), "error", err)
			newStreamNotifier(a.stderr).Warn(fmt.Sprintf("Could not mirror %s: %v", req.String(), err))
		}
		if observer != nil {
			observer.Done(req.Name)
		}
	}
	if observer != nil {
		observer.Finish()
	}

	line := fmt.Sprintf("Mirrored %d of %d manifests.", len(reqs)-failed, len(reqs))
	if failed > 0 {
		PrintError(a.stderr, line)
		return errVerificationFailed
	}
	printSuccess(a.stderr, line)
	return nil
}
