package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/plugin-checksum/config"
	"github.com/reglet-dev/plugin-checksum/history"
	"github.com/reglet-dev/plugin-checksum/internal/progress"
	"github.com/reglet-dev/plugin-checksum/plugin"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/report"
)

type verifyOptions struct {
	site           siteFlags
	version        string
	format         string
	exclude        []string
	workers        int
	all            bool
	strict         bool
	excludeMustUse bool
	record         bool
}

func newVerifyCmd(a *app) *cobra.Command {
	o := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify [<plugin>...]",
		Short: "Verify plugin files against their published checksums",
		Long: `Verify compares the files of each named plugin, or of every installed
plugin with --all, against the checksums published for the installed
version. Must-use plugins are always checked unless --exclude-mu-plugins
is given.

Without plugin names or --all on an interactive terminal, a picker lists
the installed plugins.`,
		Example: `  plugin-checksum verify akismet hello
  plugin-checksum verify --all --exclude=akismet --format=json
  plugin-checksum verify woocommerce --version="^8.0"
  plugin-checksum verify --all --source=oci://registry.example.com/checksums`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args, o)
		},
	}

	flags := cmd.Flags()
	o.site.bind(flags)
	flags.BoolVar(&o.all, "all", false, "verify all installed plugins")
	flags.BoolVar(&o.strict, "strict", false, "report soft changes such as readme.txt edits")
	flags.StringVar(&o.version, "version", "", "verify against this version or constraint instead of the installed one")
	flags.StringVar(&o.format, "format", string(report.FormatTable), "output format: table, json, csv, yaml or count")
	flags.StringSliceVar(&o.exclude, "exclude", nil, "comma separated plugins to skip")
	flags.BoolVar(&o.excludeMustUse, "exclude-mu-plugins", false, "do not verify must-use plugins")
	flags.IntVar(&o.workers, "workers", 0, "plugins verified concurrently")
	flags.BoolVar(&o.record, "record", false, "store the run in the history database")

	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, args []string, o *verifyOptions) error {
	cfg, err := o.site.apply(cmd, a.cfg)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		if o.workers < 1 {
			return usageError(fmt.Errorf("--workers must be at least 1"))
		}
		cfg.Workers = o.workers
	}

	format, err := report.ParseFormat(o.format)
	if err != nil {
		return usageError(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := a.buildVerifier(ctx, cfg, o.site.inventory)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 && !o.all && format == report.FormatTable && a.terminal() {
		names, err = a.pick(v.inventory.PluginNames())
		if err != nil {
			return err
		}
	}

	opts := []plugin.VerifyServiceOption{
		plugin.WithNotifier(newStreamNotifier(a.stderr)),
		plugin.WithWorkers(cfg.Workers),
		plugin.WithLogger(a.logger),
	}
	if format == report.FormatTable && a.stderrIsTerminal() {
		opts = append(opts, plugin.WithProgress(progress.New(a.stderr)))
	}
	if o.record {
		store, err := openHistory(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, plugin.WithRecorder(store))
	}

	svc := plugin.NewVerifyService(v.inventory, v.resolver, opts...)
	rep, err := svc.Verify(ctx, names, plugin.VerifyOptions{
		Version:        o.version,
		Exclude:        o.exclude,
		All:            o.all,
		Strict:         o.strict,
		ExcludeMustUse: o.excludeMustUse,
	})
	switch {
	case errors.Is(err, entities.ErrNoArtifactsSpecified):
		return usageError(err)
	case err != nil && rep != nil:
		// Interrupted: show what finished before giving up.
		_ = report.Write(a.stdout, format, rep)
		return fmt.Errorf("verification interrupted after %d plugins: %w", rep.Summary.Total, err)
	case err != nil:
		return err
	}

	if err := report.Write(a.stdout, format, rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	out := a.stdout
	if format.Machine() {
		out = a.stderr
	}
	line, failed := report.SummaryLine(rep.Summary)
	if failed {
		PrintError(out, line)
		return errVerificationFailed
	}
	printSuccess(out, line)
	if rep.RunID != "" {
		_, _ = fmt.Fprintf(a.stderr, "Recorded run %s.\n", rep.RunID)
	}
	return nil
}

func (a *app) stderrIsTerminal() bool {
	f, ok := a.stderr.(*os.File)
	return ok && isTerminal(f)
}

func openHistory(ctx context.Context, cfg config.Config) (*history.Store, error) {
	path := cfg.HistoryDB
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, err
		}
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}
