package cli

import (
	"os"

	"github.com/charmbracelet/huh"
)

// pickFunc asks the user to choose plugins from names.
type pickFunc func(names []string) ([]string, error)

// isInteractive checks if stdin is an interactive terminal.
func isInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// pickPlugins shows a multi-select of installed plugins.
func pickPlugins(names []string) ([]string, error) {
	options := make([]huh.Option[string], 0, len(names))
	for _, n := range names {
		options = append(options, huh.NewOption(n, n))
	}

	var selected []string
	err := huh.NewMultiSelect[string]().
		Title("Plugins to verify").
		Description("Space to toggle, enter to confirm.").
		Options(options...).
		Value(&selected).
		Run()
	if err != nil {
		return nil, err
	}
	return selected, nil
}
