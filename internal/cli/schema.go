package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/plugin-checksum/schema"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [kind]",
		Short: "Print the JSON schema of a document the tool writes",
		Long: `Schema prints the JSON schema of the verify report (the default), the
inventory snapshot or a single finding.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{schema.KindReport, schema.KindInventory, schema.KindFinding},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := schema.Default()
			if err != nil {
				return err
			}

			kind := schema.KindReport
			if len(args) == 1 {
				kind = args[0]
			}
			doc, ok := reg.Get(kind)
			if !ok {
				return usageError(fmt.Errorf("unknown schema %q: expected one of %s",
					kind, strings.Join(reg.List(), ", ")))
			}
			_, err = fmt.Fprintln(a.stdout, doc)
			return err
		},
	}
}
