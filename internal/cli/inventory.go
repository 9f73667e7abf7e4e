package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/filesystem"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func styledTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func newInventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inspect the installed plugins",
	}
	cmd.AddCommand(newInventoryListCmd(a))
	cmd.AddCommand(newInventoryExportCmd(a))
	return cmd
}

func newInventoryListCmd(a *app) *cobra.Command {
	var site siteFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins with their versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := a.snapshot(cmd, &site)
			if err != nil {
				return err
			}

			t := styledTable("name", "version", "kind", "file")
			add := func(p entities.InstalledArtifact) {
				t.Row(p.Name, p.Version, p.Kind.String(), p.MainFile)
			}
			for _, p := range inv.Plugins {
				add(p)
			}
			for _, p := range inv.MustUse {
				add(p)
			}
			_, err = fmt.Fprintln(a.stdout, t.Render())
			return err
		},
	}
	site.bind(cmd.Flags())
	return cmd
}

func newInventoryExportCmd(a *app) *cobra.Command {
	var (
		site   siteFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the installed plugins to a YAML snapshot",
		Long: `Export scans the site and writes what it found as YAML. The file can be
passed to "verify --inventory" to verify a copy of the plugin directory
on another machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := a.snapshot(cmd, &site)
			if err != nil {
				return err
			}

			if output == "" {
				enc := yaml.NewEncoder(a.stdout)
				if err := enc.EncodeContext(cmd.Context(), filesystem.InventoryFromEntity(inv)); err != nil {
					return fmt.Errorf("encoding inventory: %w", err)
				}
				return enc.Close()
			}

			if err := filesystem.NewFileInventoryRepository().Save(cmd.Context(), inv, output); err != nil {
				return err
			}
			printSuccess(a.stderr, fmt.Sprintf("Wrote %d plugins and %d must-use plugins to %s.",
				len(inv.Plugins), len(inv.MustUse), output))
			return nil
		},
	}
	site.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func (a *app) snapshot(cmd *cobra.Command, site *siteFlags) (*entities.Inventory, error) {
	cfg, err := site.apply(cmd, a.cfg)
	if err != nil {
		return nil, err
	}
	inv, err := a.inventorySource(cfg, site.inventory).Snapshot(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("reading installed plugins: %w", err)
	}
	return inv, nil
}
