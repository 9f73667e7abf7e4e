// Package cli implements the plugin-checksum command tree.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/plugin-checksum/config"
)

// app holds state shared by every command of one invocation.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	pick       pickFunc
	terminal   func() bool
	cfg        config.Config
	configPath string
	debug      bool
}

// NewRootCmd creates the root command.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return newRootCmd(&app{
		stdout:   stdout,
		stderr:   stderr,
		pick:     pickPlugins,
		terminal: isInteractive,
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plugin-checksum",
		Short: "Verify installed plugins against their published checksums",
		Long: `plugin-checksum compares every file of an installed plugin with the
checksums published for its version and reports modified, missing and
added files.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newVerifyCmd(a))
	rootCmd.AddCommand(newInventoryCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newMirrorCmd(a))
	rootCmd.AddCommand(newSchemaCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

func (a *app) setup() error {
	level := slog.LevelWarn
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(config.WithPath(a.configPath))
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Execute runs the root command.
func Execute(stdout, stderr io.Writer) error {
	return NewRootCmd(stdout, stderr).Execute()
}
