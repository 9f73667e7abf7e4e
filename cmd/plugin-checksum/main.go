// Command plugin-checksum verifies installed plugins against their
// published checksums.
package main

import (
	"os"

	"github.com/reglet-dev/plugin-checksum/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stdout, os.Stderr); err != nil {
		if !cli.IsSilent(err) {
			cli.PrintError(os.Stderr, err.Error())
		}
		os.Exit(cli.ExitCode(err))
	}
}
